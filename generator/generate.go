package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"proposal_agent/library"
	"proposal_agent/logging"
	"proposal_agent/metrics"
)

const (
	DefaultGenerateMaxTokens = 8192
	DefaultStreamTimeout     = 180 * time.Second

	parseFailureMessage = "Failed to parse generation output. Please try again."
	rawLogPrefix        = 200
)

type EventType string

const (
	EventReferences EventType = "references"
	EventStatus     EventType = "status"
	EventChunk      EventType = "chunk"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
)

// Event is one message on a generation stream. Data is one of []library.Reference, StatusData,
// ChunkData, Proposal or ErrorData depending on Type.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

type StatusData struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

type ChunkData struct {
	Text string `json:"text"`
}

type ErrorData struct {
	Message string    `json:"message"`
	Code    ErrorKind `json:"code,omitempty"`
}

// Generator streams a proposal grounded in the closest library entries.
type Generator struct {
	clients       ClientFactory
	retriever     *library.Retriever
	log           logging.Logger
	topK          int
	maxTokens     int
	streamTimeout time.Duration
}

type GeneratorOption func(*Generator)

func WithTopK(k int) GeneratorOption {
	return func(g *Generator) {
		if k > 0 {
			g.topK = k
		}
	}
}

func WithGenerateMaxTokens(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithStreamTimeout bounds the whole streaming call.
func WithStreamTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.streamTimeout = d
		}
	}
}

func NewGenerator(clients ClientFactory, retriever *library.Retriever, log logging.Logger, opts ...GeneratorOption) (*Generator, error) {
	if clients == nil {
		return nil, errors.New("llm client factory is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if log == nil {
		log = logging.NewNop()
	}
	g := &Generator{
		clients:       clients,
		retriever:     retriever,
		log:           log,
		topK:          library.DefaultTopK,
		maxTokens:     DefaultGenerateMaxTokens,
		streamTimeout: DefaultStreamTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate starts a generation and returns its event stream. The channel ends with exactly one
// terminal event and is then closed. Cancelling ctx aborts the model call and closes the
// channel without a terminal event.
func (g *Generator) Generate(ctx context.Context, brief Brief, credential string) <-chan Event {
	out := make(chan Event)
	go g.run(ctx, brief, credential, out)
	return out
}

func (g *Generator) run(ctx context.Context, brief Brief, credential string, out chan<- Event) {
	defer close(out)
	metrics.GenerationsActive.Inc()
	defer metrics.GenerationsActive.Dec()

	log := g.log.With(map[string]interface{}{
		"operation": metrics.OperationGenerate,
		"key":       logging.RedactKey(credential),
	})
	send := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			log.Info("caller went away, generation abandoned", map[string]interface{}{"pending": string(ev.Type)})
			return false
		}
	}
	start := time.Now()
	fail := func(err error) {
		kind := KindOf(err)
		metrics.ObserveLLMCall(metrics.OperationGenerate, string(kind), time.Since(start).Seconds())
		log.WithError(err).Error("generation failed", map[string]interface{}{"kind": kind})
		send(Event{Type: EventError, Data: ErrorData{Message: UserMessage(err), Code: kind}})
	}

	matches := g.retriever.FindSimilar(brief.Query(), g.topK)
	refs := make([]library.Reference, len(matches))
	for i, m := range matches {
		refs[i] = m.Reference()
	}
	if !send(Event{Type: EventReferences, Data: refs}) {
		return
	}
	if !send(statusEvent(PhaseDeck)) {
		return
	}

	client, err := g.clients(credential)
	if err != nil {
		fail(err)
		return
	}

	streamCtx, cancel := context.WithTimeout(ctx, g.streamTimeout)
	defer cancel()

	prompt := BuildGenerationPrompt(brief, RenderReferenceContent(matches))
	stream, err := client.Stream(streamCtx, prompt, g.maxTokens)
	if err != nil {
		fail(err)
		return
	}
	defer stream.Close()

	var (
		full    strings.Builder
		tracker phaseTracker
		chunks  int
	)
	for stream.Next() {
		text := stream.Text()
		full.WriteString(text)
		chunks++
		if !send(Event{Type: EventChunk, Data: ChunkData{Text: text}}) {
			return
		}
		metrics.GenerationChunks.Inc()
		for _, p := range tracker.observe(text) {
			if !send(statusEvent(p)) {
				return
			}
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		fail(err)
		return
	}

	raw := full.String()
	proposal, err := ParseProposal(raw)
	if err != nil {
		metrics.ObserveLLMCall(metrics.OperationGenerate, string(KindResponseShape), time.Since(start).Seconds())
		log.WithError(err).Error("generation output rejected", map[string]interface{}{
			"raw":    logging.Truncate(raw, rawLogPrefix),
			"length": len(raw),
		})
		send(Event{Type: EventError, Data: ErrorData{Message: parseFailureMessage, Code: KindResponseShape}})
		return
	}
	proposal.LibraryReferences = refs

	metrics.ObserveLLMCall(metrics.OperationGenerate, metrics.OutcomeSuccess, time.Since(start).Seconds())
	log.Info("proposal generated", map[string]interface{}{
		"chunks":      chunks,
		"slides":      len(proposal.DeckOutline),
		"faq":         len(proposal.FAQ),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	send(Event{Type: EventComplete, Data: proposal})
}

func statusEvent(p Phase) Event {
	return Event{Type: EventStatus, Data: StatusData{Phase: p, Message: p.Message()}}
}
