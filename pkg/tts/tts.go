// Package tts provides text-to-speech synthesis.
//
// OpenAI is the production backend (built-in voices such as onyx). All
// providers implement the Provider interface; Mock returns canned audio
// for tests.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceOnyx),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Merhaba")
//	// result.Audio contains MP3 bytes
package tts

import (
	"context"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	// Format is the container/codec of Audio.
	Format Encoding

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the full round-trip time in milliseconds.
	LatencyMs int64
}

// Encoding is an audio response format understood by the speech API.
type Encoding string

const (
	EncodingMP3  Encoding = "mp3"
	EncodingOpus Encoding = "opus"
	EncodingAAC  Encoding = "aac"
	EncodingFLAC Encoding = "flac"
	EncodingWAV  Encoding = "wav"
	EncodingPCM  Encoding = "pcm" // 24kHz mono PCM16
)

// Extension returns the conventional file extension for enc, with the dot.
func (enc Encoding) Extension() string {
	switch enc {
	case EncodingOpus:
		return ".opus"
	case EncodingAAC:
		return ".aac"
	case EncodingFLAC:
		return ".flac"
	case EncodingWAV:
		return ".wav"
	case EncodingPCM:
		return ".pcm"
	default:
		return ".mp3"
	}
}

// ContentType returns the MIME type for enc.
func (enc Encoding) ContentType() string {
	switch enc {
	case EncodingOpus:
		return "audio/ogg"
	case EncodingAAC:
		return "audio/aac"
	case EncodingFLAC:
		return "audio/flac"
	case EncodingWAV:
		return "audio/wav"
	case EncodingPCM:
		return "application/octet-stream"
	default:
		return "audio/mpeg"
	}
}
