package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_agent/logging/logtest"
)

const transcript = `Call with Dana Reyes, CDO at Northwind Bank. Regulatory reporting takes 36 hours and the
compliance team reconciles data by hand. Budget is around $2M this fiscal year.`

func newTestExtractor(t *testing.T, m *MockLLM) *Extractor {
	t.Helper()
	e, err := NewExtractor(m.Factory(), logtest.New(t))
	require.NoError(t, err)
	return e
}

func TestExtract_BriefShape(t *testing.T) {
	responses := []string{
		sampleBriefJSON,
		`{"client": "Acme"}`,
		`{}`,
		"```json\n{\"industry\": \"Retail\", \"budget\": \"\"}\n```",
		`Sure! {"client": null, "timeline": "Q3"} Hope this helps.`,
	}
	for _, raw := range responses {
		m := &MockLLM{CompleteText: raw}
		res, err := newTestExtractor(t, m).Extract(context.Background(), transcript, "sk-test-credential")
		require.NoError(t, err, raw)

		// Every key is present and is either null or a non-empty string.
		b, err := json.Marshal(res.Brief)
		require.NoError(t, err)
		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &fields))
		assert.Len(t, fields, 8)
		for _, f := range BriefFields() {
			v, ok := fields[string(f)]
			require.True(t, ok, "missing key %s", f)
			if v != nil {
				s, isString := v.(string)
				require.True(t, isString)
				assert.NotEmpty(t, s)
			}
		}

		// A field is missing exactly when it is null.
		missing := map[BriefField]bool{}
		for _, mf := range res.MissingFields {
			missing[mf.Field] = true
			assert.NotEmpty(t, mf.Label)
			assert.NotEmpty(t, mf.Reason)
		}
		for _, f := range BriefFields() {
			assert.Equal(t, fields[string(f)] == nil, missing[f], "field %s", f)
		}
	}
}

func TestExtract_MissingFieldsInTableOrder(t *testing.T) {
	m := &MockLLM{CompleteText: `{"client": "Acme", "industry": "Retail"}`}
	res, err := newTestExtractor(t, m).Extract(context.Background(), transcript, "sk-test-credential")
	require.NoError(t, err)

	got := make([]BriefField, len(res.MissingFields))
	for i, mf := range res.MissingFields {
		got[i] = mf.Field
	}
	assert.Equal(t, []BriefField{
		FieldPainPoints, FieldBudget, FieldTimeline, FieldStakeholders, FieldSuccessCriteria, FieldCompetitiveContext,
	}, got)
}

func TestExtract_NothingMissing(t *testing.T) {
	full := map[string]string{}
	for _, f := range BriefFields() {
		full[string(f)] = "value"
	}
	m := &MockLLM{CompleteText: mustJSON(full)}
	res, err := newTestExtractor(t, m).Extract(context.Background(), transcript, "sk-test-credential")
	require.NoError(t, err)
	assert.NotNil(t, res.MissingFields)
	assert.Empty(t, res.MissingFields)
}

func TestExtract_ParseFailure(t *testing.T) {
	m := &MockLLM{CompleteText: "The transcript does not mention a client."}
	_, err := newTestExtractor(t, m).Extract(context.Background(), transcript, "sk-test-credential")
	require.Error(t, err)
	assert.Equal(t, KindResponseShape, KindOf(err))
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.NotContains(t, UserMessage(err), "client", "raw output never reaches the user")
}

func TestExtract_ProviderErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"auth", ClassifyStatus(401, "invalid x-api-key", nil), KindAuthentication},
		{"quota", ClassifyStatus(400, "Your credit balance is too low", nil), KindQuota},
		{"invalid kind", NewError(KindResponseShape, "model returned no text content", ErrInvalidResponseKind), KindResponseShape},
		{"untyped", errors.New("boom"), KindProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockLLM{CompleteErr: tt.err}
			_, err := newTestExtractor(t, m).Extract(context.Background(), transcript, "sk-test-credential")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, int32(1), m.CompleteCalls.Load())
		})
	}
}

func TestExtract_EmptyTranscriptSkipsProvider(t *testing.T) {
	m := &MockLLM{}
	_, err := newTestExtractor(t, m).Extract(context.Background(), "   ", "sk-test-credential")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, m.CompleteCalls.Load())
}

func TestExtract_ForwardsCredential(t *testing.T) {
	m := &MockLLM{}
	_, err := newTestExtractor(t, m).Extract(context.Background(), transcript, "sk-ant-api03-secret")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-api03-secret", m.Credentials.Load())
}

func TestExtract_FactoryError(t *testing.T) {
	factory := func(string) (LLMClient, error) {
		return nil, NewError(KindAuthentication, "missing API key", nil)
	}
	e, err := NewExtractor(factory, logtest.New(t))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), transcript, "")
	assert.Equal(t, KindAuthentication, KindOf(err))
}

func TestNewExtractor_RequiresFactory(t *testing.T) {
	_, err := NewExtractor(nil, nil)
	assert.Error(t, err)
}
