package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"proposal_agent/logging"
)

// ErrorKind classifies failures so callers can choose a status code and user message.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindQuota          ErrorKind = "quota"
	KindResponseShape  ErrorKind = "response_shape"
	KindProvider       ErrorKind = "provider"
)

var (
	ErrInvalidResponseKind = errors.New("model returned a non-text response")
	ErrParseFailure        = errors.New("model output is not a JSON object of the expected shape")
)

// Error is the single typed outcome every failure is converted to before leaving this package.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err. Unclassified errors count as provider errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProvider
}

// UserMessage returns text that is safe to show the end user. Raw model output never appears in it.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Request failed. Please try again."
	}
	switch e.Kind {
	case KindAuthentication:
		return "Invalid API key. Double-check the key in your provider console."
	case KindQuota:
		return "Your model provider account has no credits. Add credit in the provider billing console."
	case KindResponseShape:
		return "The model returned an unexpected response. Please try again."
	default:
		return e.Message
	}
}

// quotaHints are phrases providers use for billing failures regardless of status code.
var quotaHints = []string{"credit", "billing", "insufficient", "quota"}

// ClassifyStatus turns a provider HTTP failure into an *Error.
func ClassifyStatus(status int, providerMessage string, err error) *Error {
	lower := strings.ToLower(providerMessage)
	for _, hint := range quotaHints {
		if strings.Contains(lower, hint) {
			return NewError(KindQuota, "model provider rejected the request for billing reasons", err)
		}
	}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return NewError(KindAuthentication, "model provider rejected the API key", err)
	case status == http.StatusPaymentRequired:
		return NewError(KindQuota, "model provider rejected the request for billing reasons", err)
	case status == http.StatusTooManyRequests:
		return NewError(KindProvider, "model provider rate limit reached, please wait and try again", err)
	default:
		msg := fmt.Sprintf("model provider returned status %d", status)
		if providerMessage != "" {
			msg += ": " + logging.Truncate(providerMessage, 200)
		}
		return NewError(KindProvider, msg, err)
	}
}

// ClassifyTransport covers failures that never produced an HTTP status.
func ClassifyTransport(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(KindProvider, "model request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewError(KindProvider, "model request was cancelled", err)
	default:
		return NewError(KindProvider, "could not reach the model provider", err)
	}
}
