package assistant

import (
	"sync"
	"time"
)

// historySize is how many completed turns are kept for averaging.
const historySize = 100

// Metrics tracks latency at each stage of one turn.
type Metrics struct {
	STTLatency          time.Duration
	LLMLatency          time.Duration // all completions of the turn
	IllustrationLatency time.Duration
	TTSLatency          time.Duration
	TotalLatency        time.Duration

	Completions int
	ToolCalls   int
	Tokens      int
}

// MetricsCollector keeps the most recent turns' metrics.
// It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	last    Metrics
	history []Metrics
	turns   int

	onUpdate func(Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]Metrics, 0, historySize),
	}
}

// OnUpdate sets a callback that fires after every recorded turn.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Record archives one completed turn.
func (m *MetricsCollector) Record(t Metrics) {
	m.mu.Lock()
	m.last = t
	m.turns++
	m.history = append(m.history, t)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}
	fn := m.onUpdate
	m.mu.Unlock()

	if fn != nil {
		fn(t)
	}
}

// Last returns the most recently recorded turn.
func (m *MetricsCollector) Last() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Turns returns the number of turns recorded since creation.
func (m *MetricsCollector) Turns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns
}

// Average returns average metrics over recent turns.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return Metrics{}
	}

	var avg Metrics
	for _, h := range m.history {
		avg.STTLatency += h.STTLatency
		avg.LLMLatency += h.LLMLatency
		avg.IllustrationLatency += h.IllustrationLatency
		avg.TTSLatency += h.TTSLatency
		avg.TotalLatency += h.TotalLatency
		avg.Completions += h.Completions
		avg.ToolCalls += h.ToolCalls
		avg.Tokens += h.Tokens
	}

	n := len(m.history)
	d := time.Duration(n)
	avg.STTLatency /= d
	avg.LLMLatency /= d
	avg.IllustrationLatency /= d
	avg.TTSLatency /= d
	avg.TotalLatency /= d
	avg.Completions /= n
	avg.ToolCalls /= n
	avg.Tokens /= n

	return avg
}

// FormatLatency returns a formatted string of the stage latencies.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.STTLatency) + " STT | " +
		formatDuration(m.LLMLatency) + " LLM | " +
		formatDuration(m.IllustrationLatency) + " IMG | " +
		formatDuration(m.TTSLatency) + " TTS | " +
		formatDuration(m.TotalLatency) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
