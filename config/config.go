// Package config loads service settings from YAML, .env and PROPOSAL_* environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Sessions   SessionConfig    `mapstructure:"sessions"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Validation ValidationConfig `mapstructure:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// LLMConfig selects the hosted model. The API key is not part of it: callers supply their own.
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	ExtractMaxTokens  int           `mapstructure:"extract_max_tokens"`
	GenerateMaxTokens int           `mapstructure:"generate_max_tokens"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	StreamTimeout     time.Duration `mapstructure:"stream_timeout"`
}

type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

type ValidationConfig struct {
	MinTranscriptChars int `mapstructure:"min_transcript_chars"`
	MinCredentialChars int `mapstructure:"min_credential_chars"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("llm.provider %q not supported", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.RequestTimeout <= 0 || c.LLM.StreamTimeout <= 0 {
		return fmt.Errorf("llm timeouts must be positive")
	}
	switch c.Sessions.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Sessions.Redis.Address == "" {
			return fmt.Errorf("sessions.redis.address is required for the redis backend")
		}
	default:
		return fmt.Errorf("sessions.backend %q not supported", c.Sessions.Backend)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	return nil
}
