package generator

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

// MockLLM is an offline LLMClient for local runs and tests. Zero-value fields fall back to a
// canned brief and proposal.
type MockLLM struct {
	CompleteText string
	CompleteErr  error

	Chunks    []string
	StreamErr error // reported after all chunks
	OpenErr   error // returned by Stream itself
	Delay     time.Duration

	CompleteCalls atomic.Int32
	StreamCalls   atomic.Int32
	Credentials   atomic.Value // last credential bound by the factory
}

// Factory binds the mock to any credential.
func (m *MockLLM) Factory() ClientFactory {
	return func(credential string) (LLMClient, error) {
		m.Credentials.Store(credential)
		return m, nil
	}
}

func (m *MockLLM) Complete(ctx context.Context, _ Prompt, _ int) (string, error) {
	m.CompleteCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", ClassifyTransport(err)
	}
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	if m.CompleteText != "" {
		return m.CompleteText, nil
	}
	return sampleBriefJSON, nil
}

func (m *MockLLM) Stream(ctx context.Context, _ Prompt, _ int) (TextStream, error) {
	m.StreamCalls.Add(1)
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	chunks := m.Chunks
	if chunks == nil {
		chunks = SplitChunks(sampleProposalJSON, 48)
	}
	return &mockStream{ctx: ctx, chunks: chunks, finalErr: m.StreamErr, delay: m.Delay}, nil
}

type mockStream struct {
	ctx      context.Context
	chunks   []string
	idx      int
	cur      string
	finalErr error
	err      error
	delay    time.Duration
	closed   bool
}

func (s *mockStream) Next() bool {
	if s.err != nil || s.closed {
		return false
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-s.ctx.Done():
		}
	}
	if err := s.ctx.Err(); err != nil {
		s.err = ClassifyTransport(err)
		return false
	}
	if s.idx >= len(s.chunks) {
		s.err = s.finalErr
		return false
	}
	s.cur = s.chunks[s.idx]
	s.idx++
	return true
}

func (s *mockStream) Text() string { return s.cur }
func (s *mockStream) Err() error   { return s.err }

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}

// SplitChunks cuts s into pieces of at most n bytes.
func SplitChunks(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

var (
	sampleBriefJSON    = mustJSON(sampleBrief())
	sampleProposalJSON = mustJSON(sampleProposal())
)

func sampleBrief() map[string]interface{} {
	return map[string]interface{}{
		"client":             "Northwind Bank",
		"industry":           "Financial Services",
		"painPoints":         "Regulatory reporting takes 36 hours; compliance team reconciles data by hand",
		"budget":             "Roughly $2M approved for this fiscal year",
		"timeline":           "Kick off next quarter, first results within 90 days",
		"stakeholders":       "Dana Reyes (CDO), Sam Patel (Head of Compliance)",
		"successCriteria":    "Reporting under 4 hours, zero audit findings",
		"competitiveContext": nil,
	}
}

func sampleProposal() Proposal {
	return Proposal{
		DeckOutline: []Slide{
			{Title: "Where Northwind Is Today", Bullets: []string{"36-hour regulatory reporting cycle", "Manual reconciliation"}, SpeakerNote: "Open with their numbers."},
			{Title: "Our Approach", Bullets: []string{"Assess", "Build the platform", "Migrate and enable"}, SpeakerNote: "Phase the risk."},
		},
		TalkTrack: "## Opening\nThank you for the time on our discovery call.\n\n## Approach\nWe propose a phased modernization.",
		FAQ: []FAQItem{
			{Question: "How is pricing structured?", Answer: "Fixed fee per phase."},
			{Question: "How soon will we see value?", Answer: "Within the first 90 days."},
		},
	}
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
