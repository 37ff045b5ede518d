package assistant

import "time"

// EventType identifies a stage of a turn.
type EventType string

const (
	EventTranscribing EventType = "transcribing"
	EventThinking     EventType = "thinking"
	EventToolCall     EventType = "tool_call"
	EventIllustrating EventType = "illustrating"
	EventSpeaking     EventType = "speaking"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Event reports turn progress to observers such as the web UI.
type Event struct {
	Type    EventType `json:"type"`
	Session string    `json:"session"`
	Turn    string    `json:"turn"`
	Time    time.Time `json:"time"`

	// Optional details, depending on Type.
	Tool    string `json:"tool,omitempty"`
	City    string `json:"city,omitempty"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}
