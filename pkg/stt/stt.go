// Package stt transcribes recorded speech to text.
//
// Example usage:
//
//	t, _ := stt.NewOpenAI(stt.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	defer t.Close()
//
//	text, _ := stt.TranscribeFile(ctx, t, "recording.webm")
package stt

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Transcriber converts one audio clip to text.
type Transcriber interface {
	// Transcribe performs a single blocking round trip. The returned text
	// is whitespace-trimmed and may be empty.
	Transcribe(ctx context.Context, clip Clip) (*Transcript, error)

	// Close releases any resources held by the transcriber.
	Close() error
}

// Clip is an encoded audio recording.
type Clip struct {
	// Name is the file name; its extension tells the service the format
	// (webm, mp3, wav, m4a, ...).
	Name string

	// Reader yields the encoded audio bytes.
	Reader io.Reader
}

// Empty reports whether the clip carries no audio source.
func (c Clip) Empty() bool {
	return c.Reader == nil
}

// Transcript is the result of a transcription.
type Transcript struct {
	Text      string
	Language  string
	LatencyMs int64
}

// TranscribeFile transcribes the audio file at path. An empty path yields
// an empty transcript without calling t.
func TranscribeFile(ctx context.Context, t Transcriber, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	tr, err := t.Transcribe(ctx, Clip{Name: filepath.Base(path), Reader: f})
	if err != nil {
		return "", err
	}
	return tr.Text, nil
}

func clean(text string) string {
	return strings.TrimSpace(text)
}
