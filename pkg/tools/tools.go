// Package tools declares the ticket-price tool and turns the model's tool
// calls into tool-result messages.
package tools

import (
	"encoding/json"
	"log/slog"

	"github.com/mustafae03/stt-tts-agent/pkg/inference"
	"github.com/mustafae03/stt-tts-agent/pkg/pricing"
)

// TicketPrice is the name of the only tool the assistant exposes.
const TicketPrice = "get_ticket_price"

// ArgDestinationCity is the single, required argument of TicketPrice.
const ArgDestinationCity = "destination_city"

// Ack is the content of a tool result when nothing was executed.
const Ack = `{"ok": true}`

// Definitions returns the tool schema sent with every chat request.
func Definitions() []inference.Tool {
	return []inference.Tool{
		inference.NewTool(TicketPrice, "Bir şehrin yaklaşık bilet fiyatını döndür.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				ArgDestinationCity: map[string]any{
					"type":        "string",
					"description": "Gidilecek şehir",
				},
			},
			"required": []string{ArgDestinationCity},
		}),
	}
}

// Quoter produces a fare sentence for a city.
type Quoter interface {
	Quote(city string) string
}

// Outcome is the result of dispatching one assistant message.
type Outcome struct {
	// Calls are the tool calls that were honored, in order. The
	// conversation must echo exactly these back in the assistant message.
	Calls []inference.ToolCall

	// Results holds one tool message per honored call, or a single
	// acknowledgment without a call ID when the message had no calls.
	Results []inference.Message

	// Cities holds each honored call's destination, parallel to Calls.
	// Entries are empty for calls that named no city.
	Cities []string

	// City is the first destination mentioned by a ticket-price call,
	// as the model wrote it. Empty when none was given.
	City string
}

// Dispatcher executes tool calls.
type Dispatcher struct {
	quoter Quoter
	all    bool
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQuoter replaces the built-in fare table.
func WithQuoter(q Quoter) Option {
	return func(d *Dispatcher) { d.quoter = q }
}

// WithDispatchAll honors every tool call in a message instead of only the first.
func WithDispatchAll(all bool) Option {
	return func(d *Dispatcher) { d.all = all }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher backed by the built-in fare table.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		quoter: pricing.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "tools.dispatcher")
	return d
}

// Dispatch runs the tool calls of an assistant message. It never fails:
// malformed arguments and unknown tools degrade to an acknowledgment.
func (d *Dispatcher) Dispatch(msg inference.Message) Outcome {
	if len(msg.ToolCalls) == 0 {
		return Outcome{Results: []inference.Message{{Role: inference.RoleTool, Content: Ack}}}
	}

	calls := msg.ToolCalls
	if !d.all {
		if len(calls) > 1 {
			d.logger.Debug("ignoring extra tool calls", "count", len(calls)-1)
		}
		calls = calls[:1]
	}

	out := Outcome{
		Calls:  make([]inference.ToolCall, 0, len(calls)),
		Cities: make([]string, 0, len(calls)),
	}
	for _, call := range calls {
		content, city := d.run(call)
		out.Calls = append(out.Calls, call)
		out.Cities = append(out.Cities, city)
		out.Results = append(out.Results, inference.NewToolMessage(call.ID, content))
		if out.City == "" {
			out.City = city
		}
	}
	return out
}

func (d *Dispatcher) run(call inference.ToolCall) (content, city string) {
	if call.Type != "" && call.Type != inference.ToolTypeFunction {
		d.logger.Warn("unsupported tool type", "type", call.Type, "id", call.ID)
		return Ack, ""
	}

	switch call.Name {
	case TicketPrice:
		args := parseArgs(call.Arguments)
		city = stringArg(args, ArgDestinationCity)
		content = d.quoter.Quote(city)
		d.logger.Info("tool call", "tool", call.Name, "city", city)
		return content, city
	default:
		d.logger.Warn("unknown tool", "tool", call.Name, "id", call.ID)
		return Ack, ""
	}
}

// parseArgs decodes a JSON object. Anything else yields an empty set.
func parseArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
