package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/relaycast/internal/sessions"
)

const currentVersion = 1

// file is the on-disk layout. [[sessions]] keeps creation order.
type file struct {
	Version  int             `toml:"version"`
	Sessions []sessions.Spec `toml:"sessions"`
}

// tomlStore implements sessions.Store using a TOML file guarded by a lock file.
type tomlStore struct {
	path string
	lock *flock.Flock
}

// NewTOML creates a new TOML-based store.
func NewTOML(path string) sessions.Store {
	if path == "" {
		path = "sessions.toml"
	}
	return &tomlStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load reads all specs. A missing file is an empty store.
func (s *tomlStore) Load() ([]sessions.Spec, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock sessions file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sessions file: %w", err)
	}
	if f.Version > currentVersion {
		return nil, fmt.Errorf("sessions file version %d is newer than supported version %d", f.Version, currentVersion)
	}
	return f.Sessions, nil
}

// Save replaces the file atomically. The file holds stream keys, so it is
// written with mode 0600.
func (s *tomlStore) Save(specs []sessions.Spec) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(file{Version: currentVersion, Sessions: specs}); err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock sessions file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return writeAtomic(s.path, buf.Bytes(), 0o600)
}

func (s *tomlStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the same directory and renames it over path.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write sessions file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync sessions file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close sessions file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace sessions file: %w", err)
	}
	return nil
}
