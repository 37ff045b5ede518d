package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollectorAverage(t *testing.T) {
	m := NewMetricsCollector()
	assert.Equal(t, Metrics{}, m.Average())

	m.Record(Metrics{STTLatency: 100 * time.Millisecond, TotalLatency: time.Second, Completions: 1})
	m.Record(Metrics{STTLatency: 300 * time.Millisecond, TotalLatency: 3 * time.Second, Completions: 3})

	avg := m.Average()
	assert.Equal(t, 200*time.Millisecond, avg.STTLatency)
	assert.Equal(t, 2*time.Second, avg.TotalLatency)
	assert.Equal(t, 2, avg.Completions)
	assert.Equal(t, 3*time.Second, m.Last().TotalLatency)
	assert.Equal(t, 2, m.Turns())
}

func TestMetricsCollectorWindow(t *testing.T) {
	m := NewMetricsCollector()
	for i := 0; i < historySize; i++ {
		m.Record(Metrics{TotalLatency: time.Second})
	}
	for i := 0; i < historySize; i++ {
		m.Record(Metrics{TotalLatency: 3 * time.Second})
	}
	assert.Equal(t, 3*time.Second, m.Average().TotalLatency)
	assert.Equal(t, 2*historySize, m.Turns())
}

func TestMetricsCollectorOnUpdate(t *testing.T) {
	m := NewMetricsCollector()
	var got Metrics
	m.OnUpdate(func(x Metrics) { got = x })
	m.Record(Metrics{ToolCalls: 2})
	assert.Equal(t, 2, got.ToolCalls)
}

func TestFormatLatency(t *testing.T) {
	m := Metrics{STTLatency: 1200 * time.Millisecond, TotalLatency: 2 * time.Second}
	assert.Equal(t, "1.2s STT | ---ms LLM | ---ms IMG | ---ms TTS | 2s TOTAL", m.FormatLatency())
}
