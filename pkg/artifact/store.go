// Package artifact lays out per-session output files (poster image and
// reply audio) under a root directory.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// DefaultSession is used when a caller supplies no session id.
const DefaultSession = "default"

// File names inside a session directory.
const (
	ImageFile     = "city_poster.png"
	AudioBaseName = "assistant_reply"
)

// ErrInvalidSession is returned for ids that are not safe path segments.
var ErrInvalidSession = errors.New("artifact: invalid session id")

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// NormalizeSession maps "" to DefaultSession and rejects anything that is
// not 1-64 characters of [A-Za-z0-9_-].
func NormalizeSession(id string) (string, error) {
	if id == "" {
		return DefaultSession, nil
	}
	if !sessionPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return id, nil
}

// Store resolves and writes artifacts below Root.
type Store struct {
	Root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("artifact: create root: %w", err)
	}
	return &Store{Root: root}, nil
}

// Dir returns the directory for session, creating it.
func (s *Store) Dir(session string) (string, error) {
	id, err := NormalizeSession(session)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("artifact: create session dir: %w", err)
	}
	return dir, nil
}

// ImagePath returns the poster path for session without touching disk.
func (s *Store) ImagePath(session string) (string, error) {
	id, err := NormalizeSession(session)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, id, ImageFile), nil
}

// AudioPath returns the reply audio path for session. ext includes the dot.
func (s *Store) AudioPath(session, ext string) (string, error) {
	id, err := NormalizeSession(session)
	if err != nil {
		return "", err
	}
	if ext == "" {
		ext = ".mp3"
	}
	return filepath.Join(s.Root, id, AudioBaseName+ext), nil
}

// WriteAudio atomically replaces the session's reply audio and returns its path.
func (s *Store) WriteAudio(session, ext string, data []byte) (string, error) {
	if _, err := s.Dir(session); err != nil {
		return "", err
	}
	path, err := s.AudioPath(session, ext)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// writeAtomic writes to a temp file in the target directory, then renames.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file
		return fmt.Errorf("artifact: rename temp file: %w", err)
	}
	return nil
}
