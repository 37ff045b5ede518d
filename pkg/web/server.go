// Package web serves the voice travel assistant's single-page UI and its
// JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/yuin/goldmark"

	"github.com/mustafae03/stt-tts-agent/pkg/artifact"
	"github.com/mustafae03/stt-tts-agent/pkg/assistant"
	"github.com/mustafae03/stt-tts-agent/pkg/hub"
)

//go:embed static
var staticFS embed.FS

const (
	defaultAddr        = ":7860"
	defaultMaxUploadMB = 25
	shutdownTimeout    = 5 * time.Second
)

// Config wires the server to the assistant.
type Config struct {
	Assistant *assistant.Assistant // required
	Store     *artifact.Store      // required
	Hub       *hub.Hub             // optional; progress events feed /ws/events

	Addr        string
	MaxUploadMB int

	// AudioExt is the extension reply audio is stored under. Defaults to ".mp3".
	AudioExt string

	// Health reports upstream reachability for /api/health. Optional.
	Health func(ctx context.Context) error

	Logger *slog.Logger
}

// Server is the web UI server.
type Server struct {
	app    *fiber.App
	cfg    Config
	hub    *hub.Hub
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewServer builds the fiber app and registers every route.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("web: assistant required")
	}
	if cfg.Store == nil {
		return nil, errors.New("web: artifact store required")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.AudioExt == "" {
		cfg.AudioExt = ".mp3"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Hub == nil {
		cfg.Hub = hub.New("events", cfg.Logger)
	}

	s := &Server{
		cfg:    cfg,
		hub:    cfg.Hub,
		md:     goldmark.New(),
		logger: cfg.Logger.With("component", "web.server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Seyahat Asistanı",
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxUploadMB << 20,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/session", s.handleSession)
	api.Post("/sessions/:id/turns", s.handleTurn)
	api.Post("/sessions/:id/messages", s.handleMessage)
	api.Get("/sessions/:id/image", s.handleImage)
	api.Get("/sessions/:id/audio", s.handleAudio)
	api.Get("/metrics", s.handleMetrics)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		session, err := artifact.NormalizeSession(c.Query("session"))
		if err != nil {
			return err
		}
		c.Locals("session", session)
		return c.Next()
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(static),
		Index: "index.html",
	}))

	s.app = app
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the progress event hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Listen runs the event hub and serves until ctx is done, then shuts down
// gracefully.
func (s *Server) Listen(ctx context.Context) error {
	go s.hub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web UI listening", "addr", s.cfg.Addr)
		errc <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errc:
		s.hub.Close()
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down web UI")
		s.hub.Close()
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	s.hub.Close()
	return s.app.Shutdown()
}
