// Package state persists the last-known attributes and provider IDs of
// managed resources so that re-runs can plan against what was actually
// created instead of re-creating everything.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned by Lock when another run holds the state.
var ErrLocked = errors.New("state is locked by another run")

// Record is the persisted view of one managed resource.
type Record struct {
	Type string `json:"type"`
	Name string `json:"name"`
	// ID is the provider-assigned identifier.
	ID string `json:"id"`
	// Attributes are the evaluated arguments the resource was last applied
	// with; the planner diffs new desired arguments against these.
	Attributes map[string]any `json:"attributes"`
	// Outputs are the computed values exposed to downstream references.
	Outputs   map[string]any `json:"outputs"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot is the full persisted state, keyed by resource address.
type Snapshot struct {
	// Serial increments on every save; backends may use it to detect
	// concurrent modification.
	Serial    int                `json:"serial"`
	Resources map[string]*Record `json:"resources"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Resources: make(map[string]*Record)}
}

// Record returns the record at the given address, or nil.
func (s *Snapshot) Record(address string) *Record {
	return s.Resources[address]
}

// Put inserts or replaces a record.
func (s *Snapshot) Put(address string, r *Record) {
	s.Resources[address] = r
}

// Remove deletes the record at the given address.
func (s *Snapshot) Remove(address string) {
	delete(s.Resources, address)
}

// Store is a persistence backend for snapshots.
type Store interface {
	// Load reads the current snapshot. A backend with no prior state
	// returns an empty snapshot, not an error.
	Load(ctx context.Context) (*Snapshot, error)
	// Save persists the snapshot, bumping its serial.
	Save(ctx context.Context, snap *Snapshot) error
	// Lock takes the advisory run lock; ErrLocked when already held.
	Lock(ctx context.Context) error
	// Unlock releases the run lock.
	Unlock(ctx context.Context) error
}
