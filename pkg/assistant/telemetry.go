package assistant

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mustafae03/stt-tts-agent/pkg/assistant"

type instruments struct {
	tracer trace.Tracer

	turns                metric.Int64Counter
	toolCalls            metric.Int64Counter
	illustrationFailures metric.Int64Counter
	turnDuration         metric.Float64Histogram
}

func newInstruments(tracer trace.Tracer, meter metric.Meter) (*instruments, error) {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	ins := &instruments{tracer: tracer}
	var err error

	ins.turns, err = meter.Int64Counter("assistant.turns",
		metric.WithDescription("Completed conversation turns"))
	if err != nil {
		return nil, fmt.Errorf("assistant: turns counter: %w", err)
	}
	ins.toolCalls, err = meter.Int64Counter("assistant.tool_calls",
		metric.WithDescription("Tool calls dispatched"))
	if err != nil {
		return nil, fmt.Errorf("assistant: tool calls counter: %w", err)
	}
	ins.illustrationFailures, err = meter.Int64Counter("assistant.illustration_failures",
		metric.WithDescription("Poster renders that failed or panicked"))
	if err != nil {
		return nil, fmt.Errorf("assistant: illustration counter: %w", err)
	}
	ins.turnDuration, err = meter.Float64Histogram("assistant.turn_duration",
		metric.WithDescription("End-to-end turn latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("assistant: duration histogram: %w", err)
	}
	return ins, nil
}

// span starts a child span for one stage.
func (i *instruments) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (i *instruments) turnDone(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	i.turns.Add(ctx, 1, attrs)
	i.turnDuration.Record(ctx, d.Seconds(), attrs)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
