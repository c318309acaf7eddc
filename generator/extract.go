package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"proposal_agent/logging"
	"proposal_agent/metrics"
)

const (
	DefaultExtractMaxTokens = 2048
	DefaultRequestTimeout   = 60 * time.Second
)

// ExtractResult is the outcome of one successful extraction.
type ExtractResult struct {
	Brief         Brief          `json:"brief"`
	MissingFields []MissingField `json:"missingFields"`
}

// Extractor turns a call transcript into a Brief with a single model call.
type Extractor struct {
	clients   ClientFactory
	log       logging.Logger
	maxTokens int
	timeout   time.Duration
}

type ExtractorOption func(*Extractor)

func WithExtractMaxTokens(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithRequestTimeout bounds the one-shot model call.
func WithRequestTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func NewExtractor(clients ClientFactory, log logging.Logger, opts ...ExtractorOption) (*Extractor, error) {
	if clients == nil {
		return nil, errors.New("llm client factory is required")
	}
	if log == nil {
		log = logging.NewNop()
	}
	e := &Extractor{
		clients:   clients,
		log:       log,
		maxTokens: DefaultExtractMaxTokens,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract runs the extraction. Length checks on transcript and credential are the caller's job;
// only an empty transcript is refused here.
func (e *Extractor) Extract(ctx context.Context, transcript, credential string) (*ExtractResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, NewError(KindValidation, "transcript is required", nil)
	}

	log := e.log.With(map[string]interface{}{
		"operation": metrics.OperationExtract,
		"key":       logging.RedactKey(credential),
	})

	client, err := e.clients(credential)
	if err != nil {
		return nil, e.fail(log, err, time.Now())
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	raw, err := client.Complete(ctx, BuildExtractionPrompt(transcript), e.maxTokens)
	if err != nil {
		return nil, e.fail(log, err, start)
	}

	brief, err := ParseBrief(raw)
	if err != nil {
		log.Warn("extraction response rejected", map[string]interface{}{
			"raw":    logging.Truncate(raw, 500),
			"length": len(raw),
		})
		return nil, e.fail(log, err, start)
	}

	missing := MissingFields(brief)
	metrics.ObserveLLMCall(metrics.OperationExtract, metrics.OutcomeSuccess, time.Since(start).Seconds())
	log.Info("brief extracted", map[string]interface{}{
		"missing":     len(missing),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &ExtractResult{Brief: brief, MissingFields: missing}, nil
}

func (e *Extractor) fail(log logging.Logger, err error, start time.Time) error {
	var typed *Error
	if !errors.As(err, &typed) {
		typed = NewError(KindProvider, "extraction failed", err)
	}
	metrics.ObserveLLMCall(metrics.OperationExtract, string(typed.Kind), time.Since(start).Seconds())
	log.WithError(err).Error("extraction failed", map[string]interface{}{"kind": typed.Kind})
	return typed
}
