package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mustafae03/stt-tts-agent/internal/config"
	"github.com/mustafae03/stt-tts-agent/internal/log"
	"github.com/mustafae03/stt-tts-agent/internal/telemetry"
	"github.com/mustafae03/stt-tts-agent/pkg/artifact"
	"github.com/mustafae03/stt-tts-agent/pkg/assistant"
	"github.com/mustafae03/stt-tts-agent/pkg/hub"
	"github.com/mustafae03/stt-tts-agent/pkg/illustration"
	"github.com/mustafae03/stt-tts-agent/pkg/inference"
	"github.com/mustafae03/stt-tts-agent/pkg/pricing"
	"github.com/mustafae03/stt-tts-agent/pkg/stt"
	"github.com/mustafae03/stt-tts-agent/pkg/tools"
	"github.com/mustafae03/stt-tts-agent/pkg/tts"
)

const retryDelay = 500 * time.Millisecond

// app holds everything a command needs.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *artifact.Store
	chat      inference.Provider
	speech    tts.Provider
	stt       stt.Transcriber
	events    *hub.Hub
	assistant *assistant.Assistant

	stopTelemetry func()
}

// setup loads configuration and wires the services.
func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := log.Init(log.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		JSON:  cfg.Log.JSON,
	})
	a := &app{cfg: cfg, logger: logger, stopTelemetry: func() {}}

	if cfg.Telemetry.Enabled {
		stop, err := telemetry.Init(ctx, cfg.Telemetry.Dir, cfg.Telemetry.Flush)
		if err != nil {
			return nil, err
		}
		a.stopTelemetry = stop
		logger.Info("telemetry enabled", "dir", cfg.Telemetry.Dir)
	}

	if !cfg.HasAPIKey() {
		logger.Warn("OPENAI_API_KEY is not set; requests will fail with an auth error")
	}

	oc := cfg.OpenAI
	a.chat, err = inference.NewOpenAI(
		inference.WithAPIKey(oc.APIKey),
		inference.WithBaseURL(oc.BaseURL),
		inference.WithModel(oc.ChatModel),
		inference.WithTemperature(oc.Temperature),
		inference.WithTimeout(oc.Timeout),
		inference.WithRetry(oc.MaxRetries, retryDelay),
		inference.WithRateLimit(oc.RateLimit, 1),
		inference.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("chat provider: %w", err)
	}

	a.speech, err = tts.NewOpenAI(
		tts.WithAPIKey(oc.APIKey),
		tts.WithBaseURL(oc.BaseURL),
		tts.WithModel(oc.TTSModel),
		tts.WithVoice(oc.Voice),
		tts.WithTimeout(oc.Timeout),
		tts.WithRetry(oc.MaxRetries, retryDelay),
		tts.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("speech provider: %w", err)
	}

	a.stt, err = stt.NewOpenAI(
		stt.WithAPIKey(oc.APIKey),
		stt.WithBaseURL(oc.BaseURL),
		stt.WithModel(oc.STTModel),
		stt.WithTimeout(oc.Timeout),
		stt.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("transcriber: %w", err)
	}

	a.store, err = artifact.NewStore(cfg.Assistant.OutDir)
	if err != nil {
		return nil, err
	}

	a.events = hub.New("events", logger)
	a.assistant, err = assistant.New(assistant.Config{
		Chat:        a.chat,
		Transcriber: a.stt,
		Speech:      a.speech,
		Store:       a.store,
		Dispatcher: tools.NewDispatcher(
			tools.WithQuoter(pricing.Default()),
			tools.WithDispatchAll(cfg.Assistant.DispatchAll),
			tools.WithLogger(logger),
		),
		Illustrator:   illustration.New(),
		SystemPrompt:  cfg.Assistant.SystemPrompt,
		MaxToolRounds: cfg.Assistant.MaxToolRounds,
		OnEvent:       a.publish,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) publish(e assistant.Event) {
	a.logger.Debug("turn event", "type", e.Type, "session", e.Session, "city", e.City)
	if err := a.events.PublishTo(e.Session, e); err != nil {
		a.logger.Warn("publish event failed", "error", err)
	}
}

func (a *app) close() {
	a.events.Close()
	a.chat.Close()
	a.speech.Close()
	a.stt.Close()
	a.stopTelemetry()
	log.Close()
}
