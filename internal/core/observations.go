package core

import (
	"context"
	"fmt"
	"time"

	"collabcore/pkg/domain"
)

// ObservationInput is one entry of a bulk observation submission.
type ObservationInput struct {
	CollaborationID string
	Description     string
}

// CreateObservations validates each entry independently: entries whose
// collaboration exists are stored and returned, entries referencing a
// missing collaboration are silently dropped. The batch never fails as a
// whole because some entries reference unknown collaborations; only storage
// failures abort it.
func (s *Service) CreateObservations(ctx context.Context, inputs []ObservationInput) (stored []domain.Observation, err error) {
	defer func(start time.Time) { s.observe(ctx, "create_observations", start, err) }(s.nowFn())

	stored = []domain.Observation{}
	for _, in := range inputs {
		exists, err := s.collaborations.Exists(ctx, func(c domain.Collaboration) bool {
			return c.ID == in.CollaborationID
		})
		if err != nil {
			return nil, fmt.Errorf("check collaboration %s: %w", in.CollaborationID, err)
		}
		if !exists {
			continue
		}
		created, err := s.observations.Add(ctx, domain.Observation{
			ID:              s.idFn(),
			Description:     in.Description,
			CollaborationID: in.CollaborationID,
			RecordedAt:      s.nowFn(),
		})
		if err != nil {
			return nil, fmt.Errorf("store observation: %w", err)
		}
		stored = append(stored, created)
	}
	return stored, nil
}

// ResolveObservation sets the resolution timestamp exactly once. Resolving an
// already resolved observation returns the stored record unchanged.
func (s *Service) ResolveObservation(ctx context.Context, id string) (out domain.Observation, err error) {
	defer func(start time.Time) { s.observe(ctx, "resolve_observation", start, err) }(s.nowFn())

	current, found, err := s.observations.Get(ctx, id)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("get observation: %w", err)
	}
	if !found {
		return domain.Observation{}, domain.NotFoundError{Entity: domain.EntityObservation, ID: id}
	}
	if current.Resolved() {
		return current, nil
	}

	next := current.Clone()
	now := s.nowFn()
	next.ResolvedAt = &now

	updated, err := s.observations.Update(ctx, current, next)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("update observation: %w", err)
	}
	return updated, nil
}
