package stt

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
	"github.com/mustafae03/stt-tts-agent/internal/httpc"
)

const providerOpenAI = "openai"

// ModelWhisper1 is the default transcription model.
const ModelWhisper1 = openai.Whisper1

// ErrNoAudio is returned when a clip has no reader.
var ErrNoAudio = errors.New("stt: no audio")

// Config holds transcriber configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Model      string
	Language   string // ISO-639-1 hint, optional
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Option is a functional option for configuring the transcriber.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithLanguage sets the spoken-language hint.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns Whisper defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:   ModelWhisper1,
		Timeout: 60 * time.Second,
		Logger:  slog.Default(),
	}
}

// OpenAI transcribes audio with the Whisper API.
type OpenAI struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates a Whisper transcriber.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Model == "" {
		cfg.Model = ModelWhisper1
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
		logger: cfg.Logger.With("component", "stt.openai"),
	}, nil
}

// Transcribe sends the clip to Whisper.
func (o *OpenAI) Transcribe(ctx context.Context, clip Clip) (*Transcript, error) {
	if clip.Empty() {
		return nil, apierr.Wrap("transcribe", providerOpenAI, ErrNoAudio)
	}
	name := clip.Name
	if name == "" {
		name = "audio.webm"
	}

	start := time.Now()
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.config.Model,
		FilePath: name,
		Reader:   clip.Reader,
		Language: o.config.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		werr := apierr.Wrap("transcribe", providerOpenAI, err)
		o.logger.Warn("transcription failed", "file", name, "error", werr)
		return nil, werr
	}

	tr := &Transcript{
		Text:      clean(resp.Text),
		Language:  resp.Language,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	o.logger.Debug("transcribed", "file", name, "chars", len(tr.Text), "latency_ms", tr.LatencyMs)
	return tr, nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	return nil
}

// Verify OpenAI implements Transcriber at compile time.
var _ Transcriber = (*OpenAI)(nil)
