package logging

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRedactKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: "NONE"},
		{name: "short key fully hidden", key: "abc123", want: "***"},
		{name: "provider key keeps prefix only", key: "sk-ant-REDACTED", want: "sk-ant-..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactKey(tt.key)
			assert.Equal(t, tt.want, got)
			if len(tt.key) > 0 {
				assert.NotContains(t, got, "abcdefghijklmnop")
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := "ab銀行报告"
	for n := 0; n < len(s); n++ {
		got := Truncate(s, n)
		assert.True(t, utf8.ValidString(got), "n=%d got %q", n, got)
		assert.LessOrEqual(t, len(got), n+len("..."))
	}
	assert.Equal(t, "ab...", Truncate(s, 4))
	assert.Equal(t, "ab銀...", Truncate(s, 5))
}

func TestLoggersDoNotPanic(t *testing.T) {
	for _, l := range []Logger{NewNop(), NewZapAdapter(zaptest.NewLogger(t))} {
		l.With(map[string]interface{}{"component": "test"}).
			WithError(errors.New("boom")).
			Info("hello", map[string]interface{}{"n": 1})
		l.Debug("debug", nil)
		l.Warn("warn", nil)
		l.Error("error", nil)
	}

	l, err := New("debug", "json")
	assert.NoError(t, err)
	l.Info("built", nil)
}
