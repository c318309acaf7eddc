package generator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_agent/library"
	"proposal_agent/logging/logtest"
)

func strPtr(s string) *string { return &s }

func finservBrief() Brief {
	return Brief{
		Client:     strPtr("Northwind Bank"),
		Industry:   strPtr("Financial Services"),
		PainPoints: strPtr("36 hour reporting, compliance"),
	}
}

func fixedRetriever() *library.Retriever {
	return library.NewRetriever(library.Default(), library.WithJitter(func() int { return 0 }))
}

func newTestGenerator(t *testing.T, m *MockLLM, opts ...GeneratorOption) *Generator {
	t.Helper()
	g, err := NewGenerator(m.Factory(), fixedRetriever(), logtest.New(t), opts...)
	require.NoError(t, err)
	return g
}

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("event stream did not close")
			return nil
		}
	}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func statusPhases(events []Event) []Phase {
	var out []Phase
	for _, ev := range events {
		if ev.Type == EventStatus {
			out = append(out, ev.Data.(StatusData).Phase)
		}
	}
	return out
}

func assertStreamShape(t *testing.T, events []Event) {
	t.Helper()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, EventReferences, events[0].Type)
	assert.Equal(t, EventStatus, events[1].Type)
	assert.Equal(t, PhaseDeck, events[1].Data.(StatusData).Phase)

	terminals := 0
	for i, ev := range events {
		if ev.Terminal() {
			terminals++
			assert.Equal(t, len(events)-1, i, "terminal event must be last")
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestGenerate_EventOrder(t *testing.T) {
	m := &MockLLM{}
	events := collect(t, newTestGenerator(t, m).Generate(context.Background(), finservBrief(), "sk-test-credential"))

	assertStreamShape(t, events)
	assert.Equal(t, EventComplete, events[len(events)-1].Type)
	assert.Equal(t, []Phase{PhaseDeck, PhaseTalkTrack, PhaseFAQ}, statusPhases(events))

	var text string
	for _, ev := range events {
		if ev.Type == EventChunk {
			text += ev.Data.(ChunkData).Text
		}
	}
	assert.Equal(t, sampleProposalJSON, text, "chunks are relayed verbatim and in order")
	assert.Equal(t, int32(1), m.StreamCalls.Load())
}

func TestGenerate_StatusFollowsMarkerChunk(t *testing.T) {
	m := &MockLLM{Chunks: []string{`{"deckOutline":[],`, `"talkTrack":"hello",`, `"faq":[]}`}}
	events := collect(t, newTestGenerator(t, m).Generate(context.Background(), finservBrief(), "sk-test-credential"))

	assert.Equal(t, []EventType{
		EventReferences, EventStatus,
		EventChunk,
		EventChunk, EventStatus,
		EventChunk, EventStatus,
		EventComplete,
	}, eventTypes(events))
}

func TestGenerate_RoundTrip(t *testing.T) {
	m := &MockLLM{}
	events := collect(t, newTestGenerator(t, m).Generate(context.Background(), finservBrief(), "sk-test-credential"))
	require.NotEmpty(t, events)

	refs, ok := events[0].Data.([]library.Reference)
	require.True(t, ok)
	require.Len(t, refs, 3)
	assert.Equal(t, "finserv-2024", refs[0].ID)

	final := events[len(events)-1]
	require.Equal(t, EventComplete, final.Type)
	got, ok := final.Data.(Proposal)
	require.True(t, ok)

	want := sampleProposal()
	want.LibraryReferences = refs
	assert.Equal(t, want, got)

	// On the wire the payload is the model JSON plus the references.
	var wire, model map[string]interface{}
	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &wire))
	require.NoError(t, json.Unmarshal([]byte(sampleProposalJSON), &model))
	assert.Len(t, wire["libraryReferences"], 3)
	delete(wire, "libraryReferences")
	delete(model, "libraryReferences")
	assert.Equal(t, model, wire)
}

func TestGenerate_MalformedOutput(t *testing.T) {
	outputs := [][]string{
		{`{"deckOutline": [`, `{"title": "x"`},
		{"I'm sorry, I can't produce that."},
		{},
		{"```json\n", `{"talkTrack": 1}`, "\n```"},
	}
	for _, chunks := range outputs {
		m := &MockLLM{Chunks: chunks}
		events := collect(t, newTestGenerator(t, m).Generate(context.Background(), finservBrief(), "sk-test-credential"))

		assertStreamShape(t, events)
		final := events[len(events)-1]
		require.Equal(t, EventError, final.Type)
		data := final.Data.(ErrorData)
		assert.Equal(t, parseFailureMessage, data.Message)
		assert.Equal(t, KindResponseShape, data.Code)
		for _, ev := range events {
			assert.NotEqual(t, EventComplete, ev.Type)
		}
	}
}

func TestGenerate_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		mock *MockLLM
		kind ErrorKind
		msg  string
	}{
		{
			name: "rejected at open",
			mock: &MockLLM{OpenErr: ClassifyStatus(401, "invalid x-api-key", nil)},
			kind: KindAuthentication,
			msg:  "Invalid API key. Double-check the key in your provider console.",
		},
		{
			name: "fails mid stream",
			mock: &MockLLM{Chunks: []string{`{"deckOutline":[`}, StreamErr: ClassifyStatus(529, "overloaded", nil)},
			kind: KindProvider,
			msg:  "model provider returned status 529: overloaded",
		},
		{
			name: "billing",
			mock: &MockLLM{OpenErr: ClassifyStatus(400, "Your credit balance is too low to access the API", nil)},
			kind: KindQuota,
			msg:  "Your model provider account has no credits. Add credit in the provider billing console.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := collect(t, newTestGenerator(t, tt.mock).Generate(context.Background(), finservBrief(), "sk-test-credential"))

			assertStreamShape(t, events)
			final := events[len(events)-1]
			require.Equal(t, EventError, final.Type)
			assert.Equal(t, ErrorData{Message: tt.msg, Code: tt.kind}, final.Data)
		})
	}
}

func TestGenerate_StreamTimeoutYieldsError(t *testing.T) {
	m := &MockLLM{Delay: 200 * time.Millisecond}
	g := newTestGenerator(t, m, WithStreamTimeout(20*time.Millisecond))
	events := collect(t, g.Generate(context.Background(), finservBrief(), "sk-test-credential"))

	assertStreamShape(t, events)
	final := events[len(events)-1]
	require.Equal(t, EventError, final.Type)
	assert.Equal(t, "model request timed out", final.Data.(ErrorData).Message)
}

func TestGenerate_CallerCancelClosesStream(t *testing.T) {
	m := &MockLLM{Delay: 10 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	ch := newTestGenerator(t, m).Generate(ctx, finservBrief(), "sk-test-credential")

	first := <-ch
	assert.Equal(t, EventReferences, first.Type)
	cancel()

	rest := collect(t, ch)
	for _, ev := range rest {
		assert.NotEqual(t, EventComplete, ev.Type, "no completion after the caller left")
	}
}

func TestGenerate_TopK(t *testing.T) {
	m := &MockLLM{}
	events := collect(t, newTestGenerator(t, m, WithTopK(1)).Generate(context.Background(), finservBrief(), "sk-test-credential"))
	require.NotEmpty(t, events)
	assert.Len(t, events[0].Data.([]library.Reference), 1)
}

func TestNewGenerator_Validation(t *testing.T) {
	m := &MockLLM{}
	_, err := NewGenerator(nil, fixedRetriever(), nil)
	assert.Error(t, err)
	_, err = NewGenerator(m.Factory(), nil, nil)
	assert.Error(t, err)
}

func TestEventTerminal(t *testing.T) {
	assert.True(t, Event{Type: EventComplete}.Terminal())
	assert.True(t, Event{Type: EventError}.Terminal())
	assert.False(t, Event{Type: EventChunk}.Terminal())
	assert.False(t, Event{Type: EventReferences}.Terminal())
}
