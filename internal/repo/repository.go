// Package repo implements a generic, type-parameterized repository over the
// storage backend. One Repository is instantiated per record kind, bound to
// its state bucket and to the typed relations it can eagerly expand.
package repo

import (
	"context"
	"fmt"
	"sort"

	"collabcore/internal/storage"
	"collabcore/pkg/domain"
)

// Record is the capability set a stored type must satisfy: a stable primary
// key and a deep copy so callers never alias committed state.
type Record[T any] interface {
	Key() string
	Clone() T
}

// Loader materializes one named relation onto a record from the state clone
// it was read from.
type Loader[T any] func(st *storage.State, rec *T)

// Query carries the optional predicate, ordering, and relation expansions of
// a Filter call. Ordering, when supplied, is evaluated eagerly over the
// materialized result.
type Query[T any] struct {
	Predicate func(T) bool
	Less      func(a, b T) bool
	Include   []domain.Relation
}

// Repository provides uniform access to one record kind's bucket.
type Repository[T Record[T]] struct {
	backend storage.Backend
	entity  domain.EntityType
	bucket  func(*storage.State) map[string]T
	loaders map[domain.Relation]Loader[T]
}

// New constructs a repository for one record kind. The bucket accessor and
// loader set are fixed at construction, which keeps relation names a closed,
// typed set rather than free-form strings.
func New[T Record[T]](backend storage.Backend, entity domain.EntityType, bucket func(*storage.State) map[string]T, loaders map[domain.Relation]Loader[T]) *Repository[T] {
	return &Repository[T]{backend: backend, entity: entity, bucket: bucket, loaders: loaders}
}

// Entity returns the entity type the repository is bound to.
func (r *Repository[T]) Entity() domain.EntityType { return r.entity }

// Get returns the record with the given primary key, or false when absent.
// Absence is not an error.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, bool, error) {
	return r.get(ctx, id, nil)
}

// GetWithIncludes is Get plus eager expansion of the named relations.
func (r *Repository[T]) GetWithIncludes(ctx context.Context, id string, relations ...domain.Relation) (T, bool, error) {
	return r.get(ctx, id, relations)
}

func (r *Repository[T]) get(ctx context.Context, id string, relations []domain.Relation) (T, bool, error) {
	var out T
	found := false
	err := r.backend.View(ctx, func(st *storage.State) error {
		rec, ok := r.bucket(st)[id]
		if !ok {
			return nil
		}
		rec = rec.Clone()
		if err := r.expand(st, &rec, relations); err != nil {
			return err
		}
		out = rec
		found = true
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, found, nil
}

// Filter returns every record matching the query predicate (all records when
// nil), with relations expanded and ordering applied last. The result is an
// empty slice, never nil, when nothing matches.
func (r *Repository[T]) Filter(ctx context.Context, q Query[T]) ([]T, error) {
	return r.filter(ctx, q, -1, 0)
}

// FilterPaginated is Filter plus a zero-based page window. The window is
// applied before ordering, so page boundaries are computed on the unordered
// (key-sorted) result; callers needing ordered pages must sort after
// filtering instead.
func (r *Repository[T]) FilterPaginated(ctx context.Context, q Query[T], page, count int) ([]T, error) {
	return r.filter(ctx, q, page, count)
}

func (r *Repository[T]) filter(ctx context.Context, q Query[T], page, count int) ([]T, error) {
	out := []T{}
	err := r.backend.View(ctx, func(st *storage.State) error {
		bucket := r.bucket(st)
		keys := make([]string, 0, len(bucket))
		for k := range bucket {
			keys = append(keys, k)
		}
		// Key order gives a deterministic base sequence for pagination.
		sort.Strings(keys)
		for _, k := range keys {
			rec := bucket[k]
			if q.Predicate != nil && !q.Predicate(rec) {
				continue
			}
			rec = rec.Clone()
			if err := r.expand(st, &rec, q.Include); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if page >= 0 && count >= 0 {
		out = paginate(out, page, count)
	}
	if q.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return q.Less(out[i], out[j]) })
	}
	return out, nil
}

func paginate[T any](records []T, page, count int) []T {
	start := page * count
	if start >= len(records) {
		return []T{}
	}
	end := start + count
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// Exists reports whether any record matches the predicate. It is a
// check-then-act gate, not an atomic constraint; see the service layer for
// the documented race.
func (r *Repository[T]) Exists(ctx context.Context, predicate func(T) bool) (bool, error) {
	found := false
	err := r.backend.View(ctx, func(st *storage.State) error {
		for _, rec := range r.bucket(st) {
			if predicate(rec) {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Add persists a fully populated record carrying a caller-assigned key and
// returns the stored copy. A key collision is a storage integrity error.
func (r *Repository[T]) Add(ctx context.Context, rec T) (T, error) {
	stored := rec.Clone()
	err := r.backend.Mutate(ctx, func(st *storage.State) error {
		bucket := r.bucket(st)
		if _, exists := bucket[stored.Key()]; exists {
			return fmt.Errorf("%s %q already exists", r.entity, stored.Key())
		}
		bucket[stored.Key()] = stored.Clone()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return stored, nil
}

// Update replaces every field of the stored record with next's values (a
// full replace, keyed by the stored record). Partial updates are the
// caller's job: read, mutate in memory, then Update.
func (r *Repository[T]) Update(ctx context.Context, stored, next T) (T, error) {
	updated := next.Clone()
	err := r.backend.Mutate(ctx, func(st *storage.State) error {
		bucket := r.bucket(st)
		if _, exists := bucket[stored.Key()]; !exists {
			return domain.NotFoundError{Entity: r.entity, ID: stored.Key()}
		}
		bucket[stored.Key()] = updated.Clone()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Delete removes the record if present and reports whether it existed.
func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := r.backend.Mutate(ctx, func(st *storage.State) error {
		bucket := r.bucket(st)
		if _, exists := bucket[id]; !exists {
			return nil
		}
		delete(bucket, id)
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *Repository[T]) expand(st *storage.State, rec *T, relations []domain.Relation) error {
	for _, rel := range relations {
		loader, ok := r.loaders[rel]
		if !ok {
			return fmt.Errorf("relation %q not registered for %s", rel, r.entity)
		}
		loader(st, rec)
	}
	return nil
}
