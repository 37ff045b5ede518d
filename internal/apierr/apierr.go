// Package apierr classifies failures from the external speech and chat
// services into a small set of kinds that callers can act on.
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Kind is the category of an external failure.
type Kind string

const (
	KindTransient         Kind = "transient"
	KindAuth              Kind = "auth"
	KindRateLimit         Kind = "rate_limit"
	KindMalformedResponse Kind = "malformed_response"
	KindInvalidRequest    Kind = "invalid_request"
	KindCanceled          Kind = "canceled"
	KindUnknown           Kind = "unknown"
)

// ErrMalformedResponse marks a reply that could not be interpreted,
// e.g. a chat completion with no choices.
var ErrMalformedResponse = errors.New("malformed response")

// Error wraps a failed external call with enough context to log and
// report it.
type Error struct {
	Op         string // "chat", "transcribe", "synthesize", ...
	Provider   string
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s [%s]: %s (status %d): %s", e.Op, e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s: %s", e.Op, e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindRateLimit
}

// Wrap classifies err and wraps it with op and provider context.
// It returns nil for a nil error and leaves an existing *Error untouched.
func Wrap(op, provider string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	kind, status, msg := classify(err)
	return &Error{
		Op:         op,
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}

// KindOf returns the kind of any error. Unwrapped errors are classified
// on the fly.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	kind, _, _ := classify(err)
	return kind
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindTransient || k == KindRateLimit
}

func classify(err error) (Kind, int, string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if errors.Is(err, context.DeadlineExceeded) {
			return KindTransient, 0, "deadline exceeded"
		}
		return KindCanceled, 0, "canceled"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.HTTPStatusCode), apiErr.HTTPStatusCode, apiErr.Message
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return fromStatus(reqErr.HTTPStatusCode), reqErr.HTTPStatusCode, msg
	}

	if errors.Is(err, ErrMalformedResponse) {
		return KindMalformedResponse, 0, err.Error()
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindMalformedResponse, 0, err.Error()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient, 0, err.Error()
	}

	return KindUnknown, 0, err.Error()
}

func fromStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code >= 500:
		return KindTransient
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}
