package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModelTTS1, cfg.ModelID)
	assert.Equal(t, VoiceOnyx, cfg.VoiceID)
	assert.Equal(t, EncodingMP3, cfg.OutputFormat)
	assert.Zero(t, cfg.MaxRetries)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"no voice", []Option{WithVoice("")}, ErrNoVoiceID},
		{"no model", []Option{WithModel("")}, ErrNoModel},
		{"speed too low", []Option{WithSpeed(0.1)}, ErrInvalidSpeed},
		{"speed too high", []Option{WithSpeed(5)}, ErrInvalidSpeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAI(tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncoding(t *testing.T) {
	assert.Equal(t, ".mp3", EncodingMP3.Extension())
	assert.Equal(t, "audio/mpeg", EncodingMP3.ContentType())
	assert.Equal(t, ".wav", EncodingWAV.Extension())
	assert.Equal(t, "audio/ogg", EncodingOpus.ContentType())
	assert.Equal(t, ".mp3", Encoding("").Extension())
}

func TestOpenAISynthesize(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(MockAudio)
	}))
	defer server.Close()

	p, err := NewOpenAI(WithAPIKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)
	defer p.Close()

	result, err := p.Synthesize(context.Background(), "Ankara için yaklaşık bilet fiyatı: 1400 TL")
	require.NoError(t, err)

	assert.Equal(t, MockAudio, result.Audio)
	assert.Equal(t, EncodingMP3, result.Format)
	assert.Equal(t, 42, result.CharCount)

	assert.Equal(t, "tts-1", got["model"])
	assert.Equal(t, "onyx", got["voice"])
	assert.Equal(t, "mp3", got["response_format"])
	assert.Equal(t, "Ankara için yaklaşık bilet fiyatı: 1400 TL", got["input"])
}

func TestOpenAISynthesizeEmptyText(t *testing.T) {
	p, err := NewOpenAI(WithAPIKey("test-key"), WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = p.Synthesize(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAISynthesizeUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p, err := NewOpenAI(WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = p.Synthesize(context.Background(), "merhaba")
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))

	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "synthesize", ae.Op)
	assert.Equal(t, "openai", ae.Provider)
}

func TestMock(t *testing.T) {
	m := NewMock()
	result, err := m.Synthesize(context.Background(), "selam")
	require.NoError(t, err)
	assert.Equal(t, MockAudio, result.Audio)
	assert.Equal(t, 5, result.CharCount)

	require.NotNil(t, m.LastCall())
	assert.Equal(t, "selam", m.LastCall().Text)
	assert.Equal(t, 1, m.CallCount("Synthesize"))

	m.Reset()
	assert.Empty(t, m.Calls())
	assert.Nil(t, m.LastCall())
}

func TestMockWithError(t *testing.T) {
	boom := errors.New("boom")
	m := WithError(boom)
	_, err := m.Synthesize(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Health(context.Background()), boom)
}

func TestMockWithLatencyHonorsContext(t *testing.T) {
	m := WithLatency(NewMock(), time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Synthesize(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
