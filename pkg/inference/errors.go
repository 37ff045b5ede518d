package inference

import (
	"errors"
	"fmt"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
)

// Sentinel errors for common conditions.
var (
	// ErrNoModel is returned when model is required but missing.
	ErrNoModel = errors.New("inference: model required")

	// ErrNoMessages is returned for a request without messages.
	ErrNoMessages = errors.New("inference: messages required")

	// ErrNoChoices is returned when the service answers with zero choices.
	ErrNoChoices = fmt.Errorf("inference: no choices returned: %w", apierr.ErrMalformedResponse)

	// ErrProviderUnavailable is returned when a provider cannot serve requests.
	ErrProviderUnavailable = errors.New("inference: provider unavailable")
)

// WrapError classifies err and attaches the chat operation and provider.
func WrapError(provider string, err error) error {
	return apierr.Wrap("chat", provider, err)
}
