package tts

import (
	"errors"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoVoiceID is returned when the voice ID is missing.
	ErrNoVoiceID = errors.New("tts: voice ID required")

	// ErrNoModel is returned when the model ID is missing.
	ErrNoModel = errors.New("tts: model required")

	// ErrInvalidSpeed is returned for a speed outside 0.25-4.0.
	ErrInvalidSpeed = errors.New("tts: speed must be between 0.25 and 4.0")

	// ErrEmptyText is returned when asked to synthesize nothing.
	ErrEmptyText = errors.New("tts: text is empty")

	// ErrProviderUnavailable is returned when no providers are available.
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

// WrapError classifies err and attaches the synthesize operation and provider.
func WrapError(provider string, err error) error {
	return apierr.Wrap("synthesize", provider, err)
}
