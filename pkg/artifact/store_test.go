package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSession(t *testing.T) {
	valid := []string{"abc", "A-b_9", strings.Repeat("x", 64), NewSessionID()}
	for _, id := range valid {
		got, err := NormalizeSession(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, got)
	}

	got, err := NormalizeSession("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSession, got)

	invalid := []string{"../etc", "a/b", "a b", ".", "..", strings.Repeat("x", 65), "şehir"}
	for _, id := range invalid {
		_, err := NormalizeSession(id)
		assert.ErrorIs(t, err, ErrInvalidSession, id)
	}
}

func TestPaths(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	img, err := s.ImagePath("s1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "s1", "city_poster.png"), img)

	audio, err := s.AudioPath("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "default", "assistant_reply.mp3"), audio)

	_, err = s.ImagePath("../x")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestWriteAudio(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(filepath.Join(root, "out"))
	require.NoError(t, err)

	path, err := s.WriteAudio("s1", ".mp3", []byte("first"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	_, err = s.WriteAudio("s1", ".mp3", []byte("second"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "assistant_reply.mp3", entries[0].Name())
}

func TestWriteAudioSessionsIsolated(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.WriteAudio(fmt.Sprintf("s%d", i), ".mp3", []byte(fmt.Sprintf("audio-%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		path, err := s.AudioPath(fmt.Sprintf("s%d", i), ".mp3")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("audio-%d", i), string(data))
	}
}

func TestWriteAudioSameSessionConcurrent(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.WriteAudio("shared", ".mp3", []byte(fmt.Sprintf("audio-%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Whichever write landed last, the file is one complete payload.
	path, _ := s.AudioPath("shared", ".mp3")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^audio-[0-7]$`, string(data))
}
