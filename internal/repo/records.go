package repo

import (
	"sort"

	"collabcore/internal/storage"
	"collabcore/pkg/domain"
)

// Collaborations builds the repository for collaboration records with the
// observations relation registered.
func Collaborations(backend storage.Backend) *Repository[domain.Collaboration] {
	return New(backend, domain.EntityCollaboration,
		func(st *storage.State) map[string]domain.Collaboration { return st.Collaborations },
		map[domain.Relation]Loader[domain.Collaboration]{
			domain.RelationObservations: loadObservations,
		})
}

// Observations builds the repository for observation records. Observations
// expand no relations of their own.
func Observations(backend storage.Backend) *Repository[domain.Observation] {
	return New(backend, domain.EntityObservation,
		func(st *storage.State) map[string]domain.Observation { return st.Observations },
		nil)
}

// Users builds the repository for user records, keyed by name.
func Users(backend storage.Backend) *Repository[domain.User] {
	return New(backend, domain.EntityUser,
		func(st *storage.State) map[string]domain.User { return st.Users },
		nil)
}

// loadObservations materializes a collaboration's observations ordered by
// recording time, with the observation id as tiebreaker.
func loadObservations(st *storage.State, c *domain.Collaboration) {
	out := []domain.Observation{}
	for _, o := range st.Observations {
		if o.CollaborationID == c.ID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].ID < out[j].ID
	})
	c.Observations = out
}
