// Package session keeps the short-lived state of one proposal run: the transcript, the extracted
// brief and the generated proposal. Credentials are never stored.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"proposal_agent/config"
	"proposal_agent/generator"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID            string                   `json:"sessionId"`
	Transcript    string                   `json:"transcript"`
	Brief         *generator.Brief         `json:"brief"`
	MissingFields []generator.MissingField `json:"missingFields"`
	Proposal      *generator.Proposal      `json:"proposal,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// New starts a session for an extraction result.
func New(transcript string, res *generator.ExtractResult) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Transcript: transcript,
	}
	if res != nil {
		b := res.Brief
		s.Brief = &b
		s.MissingFields = res.MissingFields
	}
	return s
}

// Store persists sessions until their TTL runs out.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// NewStore builds the backend named in cfg.
func NewStore(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryStore(cfg.TTL), nil
	case config.BackendRedis:
		client := NewRedisClient(cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func stamp(s *Session, now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
