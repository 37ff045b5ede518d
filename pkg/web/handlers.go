package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/mustafae03/stt-tts-agent/pkg/artifact"
	"github.com/mustafae03/stt-tts-agent/pkg/assistant"
	"github.com/mustafae03/stt-tts-agent/pkg/hub"
	"github.com/mustafae03/stt-tts-agent/pkg/inference"
	"github.com/mustafae03/stt-tts-agent/pkg/stt"
)

// turnResponse is returned by both turn endpoints.
type turnResponse struct {
	Session    string              `json:"session"`
	Turn       string              `json:"turn,omitempty"`
	Transcript string              `json:"transcript"`
	Reply      string              `json:"reply"`
	ReplyHTML  string              `json:"reply_html"`
	City       string              `json:"city,omitempty"`
	ImageURL   string              `json:"image_url,omitempty"`
	AudioURL   string              `json:"audio_url,omitempty"`
	History    []inference.Message `json:"history"`
	ToolRounds int                 `json:"tool_rounds"`
	Latency    string              `json:"latency,omitempty"`
	Skipped    bool                `json:"skipped"`
}

// messageRequest is the body of a typed turn.
type messageRequest struct {
	Text    string              `json:"text"`
	History []inference.Message `json:"history"`
}

func (s *Server) handleSession(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"session": artifact.NewSessionID()})
}

// handleTurn answers a recorded clip. The form carries an optional
// "audio" file and a "history" JSON array.
func (s *Server) handleTurn(c *fiber.Ctx) error {
	session, err := artifact.NormalizeSession(c.Params("id"))
	if err != nil {
		return err
	}
	history, err := parseHistory(c.FormValue("history"))
	if err != nil {
		return err
	}

	var clip stt.Clip
	if fh, err := c.FormFile("audio"); err == nil && fh.Size > 0 {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("web: open upload: %w", err)
		}
		defer f.Close()
		clip = stt.Clip{Name: fh.Filename, Reader: f}
	}

	res, err := s.cfg.Assistant.Respond(c.UserContext(), session, clip, history)
	if err != nil {
		return err
	}
	return c.JSON(s.response(res))
}

// handleMessage answers typed text. Blank text leaves the history as is.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	session, err := artifact.NormalizeSession(c.Params("id"))
	if err != nil {
		return err
	}
	var req messageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.JSON(turnResponse{
			Session: session,
			History: nonNil(req.History),
			Skipped: true,
		})
	}

	res, err := s.cfg.Assistant.Turn(c.UserContext(), session, text, req.History)
	if err != nil {
		return err
	}
	return c.JSON(s.response(res))
}

func (s *Server) handleImage(c *fiber.Ctx) error {
	session, err := artifact.NormalizeSession(c.Params("id"))
	if err != nil {
		return err
	}
	path, err := s.cfg.Store.ImagePath(session)
	if err != nil {
		return err
	}
	return sendArtifact(c, path)
}

func (s *Server) handleAudio(c *fiber.Ctx) error {
	session, err := artifact.NormalizeSession(c.Params("id"))
	if err != nil {
		return err
	}
	path, err := s.cfg.Store.AudioPath(session, s.cfg.AudioExt)
	if err != nil {
		return err
	}
	return sendArtifact(c, path)
}

// latencyJSON reports one Metrics value in milliseconds.
type latencyJSON struct {
	STTMs          float64 `json:"stt_ms"`
	LLMMs          float64 `json:"llm_ms"`
	IllustrationMs float64 `json:"illustration_ms"`
	TTSMs          float64 `json:"tts_ms"`
	TotalMs        float64 `json:"total_ms"`
	Completions    int     `json:"completions"`
	ToolCalls      int     `json:"tool_calls"`
	Tokens         int     `json:"tokens"`
}

func toLatencyJSON(m assistant.Metrics) latencyJSON {
	return latencyJSON{
		STTMs:          ms(m.STTLatency),
		LLMMs:          ms(m.LLMLatency),
		IllustrationMs: ms(m.IllustrationLatency),
		TTSMs:          ms(m.TTSLatency),
		TotalMs:        ms(m.TotalLatency),
		Completions:    m.Completions,
		ToolCalls:      m.ToolCalls,
		Tokens:         m.Tokens,
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	m := s.cfg.Assistant.Metrics()
	avg := m.Average()
	return c.JSON(fiber.Map{
		"turns":   m.Turns(),
		"average": toLatencyJSON(avg),
		"last":    toLatencyJSON(m.Last()),
		"summary": avg.FormatLatency(),
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.cfg.Health != nil {
		if err := s.cfg.Health(c.UserContext()); err != nil {
			_, kind, _ := classify(err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"kind":   kind,
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleEventsWS subscribes the connection to progress events for the
// session named in its query string.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	session, _ := c.Locals("session").(string)
	hub.NewClient(s.hub, c, session).Run()
}

// response converts a turn result for the browser. Artifact URLs carry
// the turn id so the browser does not show a cached file.
func (s *Server) response(res *assistant.Result) turnResponse {
	out := turnResponse{
		Session:    res.Session,
		Turn:       res.Turn,
		Transcript: res.Transcript,
		Reply:      res.Reply,
		ReplyHTML:  s.renderHTML(res.Reply),
		City:       res.City,
		History:    nonNil(res.History),
		ToolRounds: res.ToolRounds,
		Skipped:    res.Skipped,
	}
	if res.ImagePath != "" {
		out.ImageURL = fmt.Sprintf("/api/sessions/%s/image?v=%s", res.Session, res.Turn)
	}
	if res.AudioPath != "" {
		out.AudioURL = fmt.Sprintf("/api/sessions/%s/audio?v=%s", res.Session, res.Turn)
	}
	if !res.Skipped {
		out.Latency = res.Metrics.FormatLatency()
	}
	return out
}

// renderHTML converts reply markdown to HTML. Raw HTML in the reply is
// not passed through.
func (s *Server) renderHTML(text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		s.logger.Warn("markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}

func parseHistory(raw string) ([]inference.Message, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var history []inference.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("%w: history: %v", errBadRequest, err)
	}
	return history, nil
}

// sendArtifact serves a session file. Artifacts are rewritten in place
// every turn, so they are read fresh and never cached.
func sendArtifact(c *fiber.Ctx, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("web: read artifact: %w", err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type(strings.TrimPrefix(filepath.Ext(path), "."))
	return c.Send(data)
}

func nonNil(history []inference.Message) []inference.Message {
	if history == nil {
		return []inference.Message{}
	}
	return history
}
