// Package assistant runs one conversation turn: transcript in, tool round
// if the model asks for one, spoken reply out.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
	"github.com/mustafae03/stt-tts-agent/pkg/artifact"
	"github.com/mustafae03/stt-tts-agent/pkg/inference"
	"github.com/mustafae03/stt-tts-agent/pkg/stt"
	"github.com/mustafae03/stt-tts-agent/pkg/tools"
	"github.com/mustafae03/stt-tts-agent/pkg/tts"
)

// DefaultSystemPrompt is used when Config.SystemPrompt is empty.
const DefaultSystemPrompt = "Sen bir seyahat asistanısın. Kısa ve net cevap ver."

// Illustrator renders a picture for a city at path. An empty city is a
// no-op returning "".
type Illustrator interface {
	Render(city, path string) (string, error)
}

// Config wires an Assistant to its services.
type Config struct {
	Chat        inference.Provider // required
	Transcriber stt.Transcriber    // required for Respond
	Speech      tts.Provider       // required
	Store       *artifact.Store    // required
	Dispatcher  *tools.Dispatcher  // defaults to tools.NewDispatcher()
	Illustrator Illustrator        // optional; nil disables posters

	SystemPrompt string
	Model        string // overrides the provider default

	// MaxToolRounds bounds how many tool-call responses are executed in
	// one turn. Defaults to 1.
	MaxToolRounds int

	// AudioExt is the reply file extension. Defaults to the synthesized
	// format's extension.
	AudioExt string

	// OnEvent receives progress events. It runs synchronously on the
	// turn's goroutine and must not block.
	OnEvent func(Event)

	Metrics *MetricsCollector
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Meter   metric.Meter
}

// Assistant orchestrates turns. It holds no conversation state; history
// travels with every call.
type Assistant struct {
	cfg     Config
	metrics *MetricsCollector
	logger  *slog.Logger
	ins     *instruments
}

// Result is the outcome of one turn.
type Result struct {
	Session    string
	Turn       string
	Transcript string
	Reply      string
	City       string
	ImagePath  string
	AudioPath  string

	// History is the input history plus the user and assistant messages
	// of this turn. For a skipped turn it equals the input.
	History []inference.Message

	ToolRounds int
	Metrics    Metrics

	// Skipped is true when there was nothing to answer (no audio or an
	// empty transcript). No chat call was made.
	Skipped bool
}

// New validates cfg and returns an Assistant.
func New(cfg Config) (*Assistant, error) {
	if cfg.Chat == nil {
		return nil, errors.New("assistant: chat provider required")
	}
	if cfg.Speech == nil {
		return nil, errors.New("assistant: speech provider required")
	}
	if cfg.Store == nil {
		return nil, errors.New("assistant: artifact store required")
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = tools.NewDispatcher()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 1
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetricsCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ins, err := newInstruments(cfg.Tracer, cfg.Meter)
	if err != nil {
		return nil, err
	}

	return &Assistant{
		cfg:     cfg,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With("component", "assistant"),
		ins:     ins,
	}, nil
}

// Metrics returns the collector recording every completed turn.
func (a *Assistant) Metrics() *MetricsCollector {
	return a.metrics
}

// Respond transcribes clip and answers it. An empty clip or transcript
// returns the history unchanged with Skipped set.
func (a *Assistant) Respond(ctx context.Context, session string, clip stt.Clip, history []inference.Message) (*Result, error) {
	session, err := artifact.NormalizeSession(session)
	if err != nil {
		return nil, err
	}
	t := a.newTurn(session)

	if clip.Empty() {
		return t.skip(history), nil
	}
	if a.cfg.Transcriber == nil {
		return nil, errors.New("assistant: no transcriber configured")
	}

	t.emit(Event{Type: EventTranscribing})
	sctx, span := a.ins.span(ctx, "assistant.transcribe", attribute.String("session", session))
	start := time.Now()
	tr, err := a.cfg.Transcriber.Transcribe(sctx, clip)
	t.metrics.STTLatency = time.Since(start)
	if err != nil {
		fail(span, err)
		span.End()
		return nil, t.fail(ctx, "transcribe", err)
	}
	span.End()

	if tr.Text == "" {
		a.logger.Info("empty transcript, skipping turn", "session", session)
		return t.skip(history), nil
	}
	t.transcript = tr.Text
	return t.run(ctx, tr.Text, history)
}

// Turn answers userText given the prior history.
func (a *Assistant) Turn(ctx context.Context, session, userText string, history []inference.Message) (*Result, error) {
	session, err := artifact.NormalizeSession(session)
	if err != nil {
		return nil, err
	}
	t := a.newTurn(session)
	t.transcript = userText
	return t.run(ctx, userText, history)
}

// turn carries the state of a single in-flight turn.
type turn struct {
	a          *Assistant
	session    string
	id         string
	start      time.Time
	transcript string
	metrics    Metrics
	logger     *slog.Logger
}

func (a *Assistant) newTurn(session string) *turn {
	id := uuid.NewString()
	return &turn{
		a:       a,
		session: session,
		id:      id,
		start:   time.Now(),
		logger:  a.logger.With("session", session, "turn", id),
	}
}

func (t *turn) emit(e Event) {
	if t.a.cfg.OnEvent == nil {
		return
	}
	e.Session = t.session
	e.Turn = t.id
	e.Time = time.Now()
	t.a.cfg.OnEvent(e)
}

func (t *turn) skip(history []inference.Message) *Result {
	t.emit(Event{Type: EventDone, Skipped: true})
	return &Result{
		Session: t.session,
		Turn:    t.id,
		History: slices.Clone(history),
		Skipped: true,
	}
}

func (t *turn) fail(ctx context.Context, stage string, err error) error {
	t.a.ins.turnDone(ctx, "error", time.Since(t.start))
	t.logger.Error("turn failed", "stage", stage, "kind", apierr.KindOf(err), "error", err)
	t.emit(Event{Type: EventError, Error: err.Error(), Kind: string(apierr.KindOf(err))})
	return fmt.Errorf("assistant: %s: %w", stage, err)
}

func (t *turn) run(ctx context.Context, userText string, history []inference.Message) (*Result, error) {
	a := t.a
	ctx, span := a.ins.span(ctx, "assistant.turn",
		attribute.String("session", t.session),
		attribute.String("turn", t.id),
	)
	defer span.End()

	messages := make([]inference.Message, 0, len(history)+2)
	messages = append(messages, inference.NewSystemMessage(a.cfg.SystemPrompt))
	messages = append(messages, inference.ConversationOnly(history)...)
	messages = append(messages, inference.NewUserMessage(userText))

	res := &Result{Session: t.session, Turn: t.id, Transcript: t.transcript}
	defs := tools.Definitions()

	t.emit(Event{Type: EventThinking, Text: userText})

	var reply string
	for {
		choice := ""
		if res.ToolRounds == 0 {
			choice = inference.ToolChoiceAuto
		}
		resp, err := t.chat(ctx, &inference.ChatRequest{
			Messages:   messages,
			Model:      a.cfg.Model,
			Tools:      defs,
			ToolChoice: choice,
		})
		if err != nil {
			fail(span, err)
			return nil, t.fail(ctx, "chat", err)
		}

		if !resp.WantsTools() {
			reply = resp.Message.Content
			break
		}
		if res.ToolRounds >= a.cfg.MaxToolRounds {
			t.logger.Warn("tool round limit reached, using content as reply",
				"rounds", res.ToolRounds, "content_len", len(resp.Message.Content))
			reply = resp.Message.Content
			break
		}
		res.ToolRounds++

		outcome := a.cfg.Dispatcher.Dispatch(resp.Message)
		t.metrics.ToolCalls += len(outcome.Calls)
		a.ins.toolCalls.Add(ctx, int64(len(outcome.Calls)))
		for i, call := range outcome.Calls {
			t.emit(Event{Type: EventToolCall, Tool: call.Name, City: outcome.Cities[i]})
		}

		// Only honored calls are echoed so each has a matching result. A
		// tool_calls finish with no calls adds nothing: a tool message
		// without a preceding call is rejected by the chat API.
		if len(outcome.Calls) > 0 {
			messages = append(messages, inference.Message{
				Role:      inference.RoleAssistant,
				Content:   resp.Message.Content,
				ToolCalls: outcome.Calls,
			})
			messages = append(messages, outcome.Results...)
		}

		if outcome.City != "" {
			res.City = outcome.City
			if path := t.illustrate(ctx, outcome.City); path != "" {
				res.ImagePath = path
			}
		}
	}
	res.Reply = reply

	if strings.TrimSpace(reply) != "" {
		path, err := t.speak(ctx, reply)
		if err != nil {
			fail(span, err)
			return nil, t.fail(ctx, "synthesize", err)
		}
		res.AudioPath = path
	} else {
		t.logger.Warn("empty reply, skipping speech")
	}

	res.History = append(slices.Clone(history),
		inference.NewUserMessage(userText),
		inference.NewAssistantMessage(reply),
	)

	t.metrics.TotalLatency = time.Since(t.start)
	res.Metrics = t.metrics
	a.metrics.Record(t.metrics)
	a.ins.turnDone(ctx, "ok", t.metrics.TotalLatency)

	t.logger.Info("turn complete",
		"tool_rounds", res.ToolRounds,
		"city", res.City,
		"image", res.ImagePath != "",
		"latency", t.metrics.FormatLatency(),
	)
	t.emit(Event{Type: EventDone, Text: reply, City: res.City})
	return res, nil
}

func (t *turn) chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
	ctx, span := t.a.ins.span(ctx, "assistant.chat",
		attribute.Int("messages", len(req.Messages)),
		attribute.String("tool_choice", req.ToolChoice),
	)
	defer span.End()

	start := time.Now()
	resp, err := t.a.cfg.Chat.Chat(ctx, req)
	t.metrics.LLMLatency += time.Since(start)
	t.metrics.Completions++
	if err != nil {
		fail(span, err)
		return nil, err
	}
	t.metrics.Tokens += resp.Usage.TotalTokens
	span.SetAttributes(attribute.String("finish_reason", resp.FinishReason))
	return resp, nil
}

// illustrate renders the poster. Failures, including panics, are logged
// and reported as "".
func (t *turn) illustrate(ctx context.Context, city string) (path string) {
	if t.a.cfg.Illustrator == nil {
		return ""
	}
	t.emit(Event{Type: EventIllustrating, City: city})

	_, span := t.a.ins.span(ctx, "assistant.illustrate", attribute.String("city", city))
	start := time.Now()
	defer func() {
		t.metrics.IllustrationLatency += time.Since(start)
		if r := recover(); r != nil {
			err := fmt.Errorf("illustration panic: %v", r)
			fail(span, err)
			t.a.ins.illustrationFailures.Add(ctx, 1)
			t.logger.Warn("illustration failed", "city", city, "error", err)
			path = ""
		}
		span.End()
	}()

	target, err := t.a.cfg.Store.ImagePath(t.session)
	if err == nil {
		path, err = t.a.cfg.Illustrator.Render(city, target)
	}
	if err != nil {
		fail(span, err)
		t.a.ins.illustrationFailures.Add(ctx, 1)
		t.logger.Warn("illustration failed", "city", city, "error", err)
		return ""
	}
	return path
}

func (t *turn) speak(ctx context.Context, text string) (string, error) {
	t.emit(Event{Type: EventSpeaking})
	ctx, span := t.a.ins.span(ctx, "assistant.synthesize", attribute.Int("chars", len([]rune(text))))
	defer span.End()

	start := time.Now()
	audio, err := t.a.cfg.Speech.Synthesize(ctx, text)
	t.metrics.TTSLatency = time.Since(start)
	if err != nil {
		fail(span, err)
		return "", err
	}

	ext := t.a.cfg.AudioExt
	if ext == "" {
		ext = audio.Format.Extension()
	}
	path, err := t.a.cfg.Store.WriteAudio(t.session, ext, audio.Audio)
	if err != nil {
		fail(span, err)
		return "", err
	}
	return path, nil
}
