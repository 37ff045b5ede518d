package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestInitExportsSpans(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(noop.NewMeterProvider())
	})

	shutdown, err := Init(context.Background(), dir, time.Hour)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "turn")
	span.End()

	counter, err := otel.Meter("test").Int64Counter("turns")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	shutdown()

	traces, err := os.ReadFile(filepath.Join(dir, "traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(traces), `"Name":"turn"`)
	assert.Contains(t, string(traces), ServiceName)

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.log"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "turns")
}
