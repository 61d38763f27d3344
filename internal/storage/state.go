// Package storage defines the shared state shape and the backend contract
// that the generic repository operates over. Concrete drivers live in the
// memory, sqlite, and postgres subpackages.
package storage

import (
	"context"

	"collabcore/pkg/domain"
)

// State holds every record bucket of the store. Drivers hand clones of it to
// callers; mutations only become visible when a Mutate callback succeeds.
type State struct {
	Collaborations map[string]domain.Collaboration
	Observations   map[string]domain.Observation
	Users          map[string]domain.User
}

// NewState returns an empty state with all buckets allocated.
func NewState() State {
	return State{
		Collaborations: make(map[string]domain.Collaboration),
		Observations:   make(map[string]domain.Observation),
		Users:          make(map[string]domain.User),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	cp := NewState()
	for k, v := range s.Collaborations {
		cp.Collaborations[k] = v.Clone()
	}
	for k, v := range s.Observations {
		cp.Observations[k] = v.Clone()
	}
	for k, v := range s.Users {
		cp.Users[k] = v.Clone()
	}
	return cp
}

// Snapshot captures a point-in-time serializable copy of the store state.
type Snapshot struct {
	Collaborations map[string]domain.Collaboration `json:"collaborations"`
	Observations   map[string]domain.Observation   `json:"observations"`
	Users          map[string]domain.User          `json:"users"`
}

// SnapshotFromState builds a snapshot from a state clone.
func SnapshotFromState(state State) Snapshot {
	cp := state.Clone()
	return Snapshot{
		Collaborations: cp.Collaborations,
		Observations:   cp.Observations,
		Users:          cp.Users,
	}
}

// StateFromSnapshot rebuilds store state from a snapshot, tolerating nil
// buckets from older snapshots.
func StateFromSnapshot(snapshot Snapshot) State {
	state := NewState()
	for k, v := range snapshot.Collaborations {
		state.Collaborations[k] = v.Clone()
	}
	for k, v := range snapshot.Observations {
		state.Observations[k] = v.Clone()
	}
	for k, v := range snapshot.Users {
		state.Users[k] = v.Clone()
	}
	return state
}

// Backend is the minimal store contract consumed by the generic repository.
// View runs fn against a read-only clone of the state; Mutate runs fn against
// a working clone and commits it only when fn returns nil.
type Backend interface {
	View(ctx context.Context, fn func(*State) error) error
	Mutate(ctx context.Context, fn func(*State) error) error
}
