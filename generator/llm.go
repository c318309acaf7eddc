package generator

import "context"

// LLMClient is bound to one caller credential. Implementations do not retry.
type LLMClient interface {
	// Complete returns the model's full text response.
	Complete(ctx context.Context, prompt Prompt, maxTokens int) (string, error)
	// Stream starts a streaming completion. Failures may also surface later through TextStream.Err.
	Stream(ctx context.Context, prompt Prompt, maxTokens int) (TextStream, error)
}

// TextStream is a lazy, finite, non-restartable sequence of text deltas.
// Next returns false at end of stream or on failure; Err tells the two apart.
type TextStream interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// ClientFactory binds a client to the credential supplied with a request.
type ClientFactory func(credential string) (LLMClient, error)

// LLMSettings configures a concrete provider.
type LLMSettings struct {
	Model   string
	BaseURL string
}
