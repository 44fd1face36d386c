package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists snapshots as pretty-printed JSON on the local
// filesystem. Writes go through a temp file and rename so a crashed run
// never leaves a half-written snapshot behind. The lock is an O_EXCL lock
// file beside the state file.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decoding state file %s: %w", s.path, err)
	}
	if snap.Resources == nil {
		snap.Resources = make(map[string]*Record)
	}
	return snap, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	snap.Serial++

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".netweave-state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Lock implements Store.
func (s *FileStore) Lock(ctx context.Context) error {
	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return fmt.Errorf("%w (lock file %s exists)", ErrLocked, s.lockPath())
	}
	if err != nil {
		return fmt.Errorf("creating lock file: %w", err)
	}
	fmt.Fprintf(f, "pid %d\n", os.Getpid())
	return f.Close()
}

// Unlock implements Store.
func (s *FileStore) Unlock(ctx context.Context) error {
	if err := os.Remove(s.lockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}
