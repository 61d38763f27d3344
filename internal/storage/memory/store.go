// Package memory provides an in-memory implementation of the storage backend
// used for tests and ephemeral environments.
package memory

import (
	"context"
	"sync"

	"collabcore/internal/storage"
)

// Compile-time contract assertion ensuring memory.Store adheres to the
// storage backend interface.
var _ storage.Backend = (*Store)(nil)

// Store keeps all record buckets in process memory guarded by a RWMutex.
// Mutations run against a clone of the state and commit atomically, so a
// failed callback never leaves partial writes behind.
type Store struct {
	mu    sync.RWMutex
	state storage.State
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{state: storage.NewState()}
}

// View executes fn against a read-only clone of the committed state.
func (s *Store) View(ctx context.Context, fn func(*storage.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.Clone()
	s.mu.RUnlock()
	return fn(&snapshot)
}

// Mutate executes fn against a working clone of the state and commits the
// clone when fn succeeds.
func (s *Store) Mutate(ctx context.Context, fn func(*storage.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.Clone()
	if err := fn(&working); err != nil {
		return err
	}
	s.state = working
	return nil
}

// ExportState returns a serializable snapshot of the committed state.
func (s *Store) ExportState() storage.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.SnapshotFromState(s.state)
}

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snapshot storage.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = storage.StateFromSnapshot(snapshot)
}
