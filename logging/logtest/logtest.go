// Package logtest provides loggers for tests.
package logtest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"proposal_agent/logging"
)

// New logs through testing.TB.
func New(t testing.TB) logging.Logger {
	return logging.NewZapAdapter(zaptest.NewLogger(t))
}
