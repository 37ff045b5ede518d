package stt

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, the clip bytes are returned as the transcript text.
	TranscribeFunc func(ctx context.Context, clip Clip) (*Transcript, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a Transcribe invocation.
type MockCall struct {
	Name  string
	Bytes int
	Time  time.Time
}

// NewMock returns a mock that always transcribes to text.
func NewMock(text string) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, clip Clip) (*Transcript, error) {
			return &Transcript{Text: clean(text)}, nil
		},
	}
}

// Transcribe drains the clip, records the call and delegates to TranscribeFunc.
func (m *Mock) Transcribe(ctx context.Context, clip Clip) (*Transcript, error) {
	var data []byte
	if clip.Reader != nil {
		var err error
		if data, err = io.ReadAll(clip.Reader); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Name: clip.Name, Bytes: len(data), Time: time.Now()})
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, clip)
	}
	return &Transcript{Text: clean(string(data))}, nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns the number of Transcribe calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, clip Clip) (*Transcript, error) {
			return nil, err
		},
	}
}

// Verify Mock implements Transcriber at compile time.
var _ Transcriber = (*Mock)(nil)
