package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAILLM implements LLMClient with the openai-go SDK (chat completions). Any
// OpenAI-compatible endpoint works, including Anthropic's compatibility layer.
type OpenAILLM struct {
	Model string
	Opts  []option.RequestOption
}

// NewOpenAIFactory validates settings once and returns a factory binding per-request credentials.
func NewOpenAIFactory(cfg *LLMSettings) (ClientFactory, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	return func(credential string) (LLMClient, error) {
		if credential == "" {
			return nil, NewError(KindAuthentication, "missing API key", nil)
		}
		// Retry policy belongs to the caller; the SDK would otherwise retry twice.
		opts := []option.RequestOption{
			option.WithAPIKey(credential),
			option.WithMaxRetries(0),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		return &OpenAILLM{Model: cfg.Model, Opts: opts}, nil
	}, nil
}

func (o *OpenAILLM) params(prompt Prompt, maxTokens int) openai.ChatCompletionNewParams {
	p := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	}
	if maxTokens > 0 {
		p.MaxTokens = openai.Int(int64(maxTokens))
	}
	return p
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt, maxTokens int) (string, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Chat.Completions.New(ctx, o.params(prompt, maxTokens))
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewError(KindResponseShape, "model returned no choices", ErrInvalidResponseKind)
	}
	msg := resp.Choices[0].Message
	if msg.Content == "" {
		// Refusals and tool calls carry no text content.
		return "", NewError(KindResponseShape, "model returned no text content", ErrInvalidResponseKind)
	}
	return msg.Content, nil
}

func (o *OpenAILLM) Stream(ctx context.Context, prompt Prompt, maxTokens int) (TextStream, error) {
	client := openai.NewClient(o.Opts...)
	s := client.Chat.Completions.NewStreaming(ctx, o.params(prompt, maxTokens))
	return &openAIStream{s: s}, nil
}

type openAIStream struct {
	s    *ssestream.Stream[openai.ChatCompletionChunk]
	text string
}

func (st *openAIStream) Next() bool {
	for st.s.Next() {
		chunk := st.s.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		st.text = chunk.Choices[0].Delta.Content
		return true
	}
	st.text = ""
	return false
}

func (st *openAIStream) Text() string {
	return st.text
}

func (st *openAIStream) Err() error {
	if err := st.s.Err(); err != nil {
		return classifyOpenAIError(err)
	}
	return nil
}

func (st *openAIStream) Close() error {
	return st.s.Close()
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ClassifyStatus(apiErr.StatusCode, apiErr.Message, err)
	}
	return ClassifyTransport(err)
}
