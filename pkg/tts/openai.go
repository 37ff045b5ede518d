package tts

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
	"github.com/mustafae03/stt-tts-agent/internal/httpc"
)

const providerOpenAI = "openai"

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"   // Neutral voice
	VoiceEcho    = "echo"    // Male voice
	VoiceFable   = "fable"   // British accent
	VoiceOnyx    = "onyx"    // Deep male voice
	VoiceNova    = "nova"    // Female voice
	VoiceShimmer = "shimmer" // Soft female voice
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = httpc.NewClient(cfg.Timeout)
	}

	return &OpenAI{
		config: cfg,
		client: openai.NewClientWithConfig(oc),
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyText)
	}
	start := time.Now()

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.ModelID),
		Input:          text,
		Voice:          openai.SpeechVoice(o.config.VoiceID),
		ResponseFormat: openai.SpeechResponseFormat(o.config.OutputFormat),
		Speed:          o.config.Speed,
	}

	var audio []byte
	err := apierr.Retry(ctx, o.config.MaxRetries, o.config.RetryDelay, func(ctx context.Context) error {
		resp, err := o.client.CreateSpeech(ctx, req)
		if err != nil {
			return WrapError(providerOpenAI, err)
		}
		defer resp.Close()

		audio, err = io.ReadAll(resp)
		if err != nil {
			return WrapError(providerOpenAI, err)
		}
		return nil
	})
	if err != nil {
		o.logger.Warn("speech synthesis failed", "error", err)
		return nil, err
	}

	result := &AudioResult{
		Audio:     audio,
		Format:    o.config.OutputFormat,
		CharCount: len([]rune(text)),
		LatencyMs: time.Since(start).Milliseconds(),
	}

	o.logger.Debug("synthesized",
		"chars", result.CharCount,
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
	)

	return result, nil
}

// Health checks API connectivity by listing models.
func (o *OpenAI) Health(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return apierr.Wrap("health", providerOpenAI, err)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	return nil
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
