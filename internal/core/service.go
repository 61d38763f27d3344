// Package core implements the collaboration lifecycle, the observation
// sub-lifecycle, and user registration on top of the generic repository.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"collabcore/internal/repo"
	"collabcore/internal/storage"
	"collabcore/pkg/domain"
)

// MetricsRecorder observes service operation outcomes. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Service exposes the lifecycle operations over the three record kinds. It
// composes repository calls without cross-call transactions: the uniqueness
// check in CreateCollaboration and the read-modify-write updates are
// best-effort guards, not race-free constraints.
type Service struct {
	collaborations *repo.Repository[domain.Collaboration]
	observations   *repo.Repository[domain.Observation]
	users          *repo.Repository[domain.User]

	metrics MetricsRecorder
	nowFn   func() time.Time
	idFn    func() string
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.nowFn = now }
}

// WithIDGenerator overrides identifier generation, primarily for tests.
func WithIDGenerator(id func() string) Option {
	return func(s *Service) { s.idFn = id }
}

// WithMetrics attaches a metrics recorder to every service operation.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// NewService constructs a service over the supplied storage backend.
func NewService(backend storage.Backend, opts ...Option) *Service {
	s := &Service{
		collaborations: repo.Collaborations(backend),
		observations:   repo.Observations(backend),
		users:          repo.Users(backend),
		nowFn:          func() time.Time { return time.Now().UTC() },
		idFn:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collaborations returns the underlying collaboration repository.
func (s *Service) Collaborations() *repo.Repository[domain.Collaboration] {
	return s.collaborations
}

// Users returns the underlying user repository.
func (s *Service) Users() *repo.Repository[domain.User] {
	return s.users
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
}

// CreateCollaborationInput carries the required fields of a creation request.
type CreateCollaborationInput struct {
	ProjectName    string
	Description    string
	Category       domain.Category
	OrganizationID string
	ProjectID      string
	StageID        string
}

func (in CreateCollaborationInput) validate() error {
	if in.ProjectName == "" {
		return ValidationError{Detail: "project name is required"}
	}
	if in.Description == "" {
		return ValidationError{Detail: "description is required"}
	}
	if _, err := domain.ParseCategory(string(in.Category)); err != nil {
		return ValidationError{Detail: err.Error()}
	}
	if in.OrganizationID == "" {
		return ValidationError{Detail: "organization id is required"}
	}
	if in.ProjectID == "" {
		return ValidationError{Detail: "project id is required"}
	}
	if in.StageID == "" {
		return ValidationError{Detail: "stage id is required"}
	}
	return nil
}

// CreateCollaboration registers a new pledge after verifying that no
// collaboration exists for the same (stage, organization) pair. The check and
// the write are separate store calls, so two racing creators can both pass
// the gate; the store-level unique constraint is the documented follow-up if
// that ever matters in production.
func (s *Service) CreateCollaboration(ctx context.Context, in CreateCollaborationInput) (created domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "create_collaboration", start, err) }(s.nowFn())

	if err = in.validate(); err != nil {
		return domain.Collaboration{}, err
	}

	exists, err := s.collaborations.Exists(ctx, func(c domain.Collaboration) bool {
		return c.StageID == in.StageID && c.OrganizationID == in.OrganizationID
	})
	if err != nil {
		return domain.Collaboration{}, fmt.Errorf("check duplicate collaboration: %w", err)
	}
	if exists {
		return domain.Collaboration{}, domain.ConflictError{
			Entity: domain.EntityCollaboration,
			Detail: fmt.Sprintf("stage %s already has a collaboration pledged by organization %s", in.StageID, in.OrganizationID),
		}
	}

	created, err = s.collaborations.Add(ctx, domain.Collaboration{
		ID:             s.idFn(),
		ProjectName:    in.ProjectName,
		Description:    in.Description,
		Category:       in.Category,
		OrganizationID: in.OrganizationID,
		ProjectID:      in.ProjectID,
		StageID:        in.StageID,
		Observations:   []domain.Observation{},
	})
	if err != nil {
		return domain.Collaboration{}, fmt.Errorf("store collaboration: %w", err)
	}
	return created, nil
}

// GetCollaboration fetches a collaboration with its observations expanded.
func (s *Service) GetCollaboration(ctx context.Context, id string) (out domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_collaboration", start, err) }(s.nowFn())

	c, found, err := s.collaborations.GetWithIncludes(ctx, id, domain.RelationObservations)
	if err != nil {
		return domain.Collaboration{}, fmt.Errorf("get collaboration: %w", err)
	}
	if !found {
		return domain.Collaboration{}, domain.NotFoundError{Entity: domain.EntityCollaboration, ID: id}
	}
	return c, nil
}

// UpdateCollaborationInput carries the two optional mutations of a
// collaboration: committing an organization and marking realization.
type UpdateCollaborationInput struct {
	CommittedOrganizationID *string
	Realize                 bool
}

func (in UpdateCollaborationInput) empty() bool {
	return !in.Realize && in.CommittedOrganizationID == nil
}

// UpdateCollaboration applies the set-once commit and realize mutations. When
// the input requests no change the call is a no-op returning the current
// record. Both fields are first-write-wins: a committed organization is never
// replaced and a realization timestamp is never overwritten.
func (s *Service) UpdateCollaboration(ctx context.Context, id string, in UpdateCollaborationInput) (out domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "update_collaboration", start, err) }(s.nowFn())

	current, found, err := s.collaborations.GetWithIncludes(ctx, id, domain.RelationObservations)
	if err != nil {
		return domain.Collaboration{}, fmt.Errorf("get collaboration: %w", err)
	}
	if in.empty() {
		// Nothing requested: succeed without touching the store, present or not.
		return current, nil
	}
	if !found {
		return domain.Collaboration{}, domain.NotFoundError{Entity: domain.EntityCollaboration, ID: id}
	}

	next := current.Clone()
	if in.CommittedOrganizationID != nil && next.CommittedOrganizationID == nil {
		committed := *in.CommittedOrganizationID
		next.CommittedOrganizationID = &committed
	}
	if in.Realize && next.RealizedAt == nil {
		now := s.nowFn()
		next.RealizedAt = &now
	}

	updated, err := s.collaborations.Update(ctx, current, next)
	if err != nil {
		return domain.Collaboration{}, fmt.Errorf("update collaboration: %w", err)
	}
	return updated, nil
}

// ListCollaborationsByProject returns every collaboration of a project with
// observations expanded; an empty slice when none match.
func (s *Service) ListCollaborationsByProject(ctx context.Context, projectID string) (out []domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_collaborations_by_project", start, err) }(s.nowFn())

	out, err = s.collaborations.Filter(ctx, repo.Query[domain.Collaboration]{
		Predicate: func(c domain.Collaboration) bool { return c.ProjectID == projectID },
		Include:   []domain.Relation{domain.RelationObservations},
	})
	if err != nil {
		return nil, fmt.Errorf("list collaborations by project: %w", err)
	}
	return out, nil
}

// ListCollaborationsByStage returns every collaboration of a stage with
// observations expanded; an empty slice when none match.
func (s *Service) ListCollaborationsByStage(ctx context.Context, stageID string) (out []domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_collaborations_by_stage", start, err) }(s.nowFn())

	out, err = s.collaborations.Filter(ctx, repo.Query[domain.Collaboration]{
		Predicate: func(c domain.Collaboration) bool { return c.StageID == stageID },
		Include:   []domain.Relation{domain.RelationObservations},
	})
	if err != nil {
		return nil, fmt.Errorf("list collaborations by stage: %w", err)
	}
	return out, nil
}

// ListCollaborationsByRealization returns in-progress collaborations
// (realization timestamp unset) when inProgress is true and realized ones
// otherwise, ordered by project name descending with observations expanded.
func (s *Service) ListCollaborationsByRealization(ctx context.Context, inProgress bool) (out []domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_collaborations_by_realization", start, err) }(s.nowFn())

	out, err = s.collaborations.Filter(ctx, repo.Query[domain.Collaboration]{
		Predicate: func(c domain.Collaboration) bool { return c.Realized() != inProgress },
		Less: func(a, b domain.Collaboration) bool {
			return a.ProjectName > b.ProjectName
		},
		Include: []domain.Relation{domain.RelationObservations},
	})
	if err != nil {
		return nil, fmt.Errorf("list collaborations by realization: %w", err)
	}
	return out, nil
}

// ListCollaborations returns every collaboration with observations expanded,
// ordered by project name then id. Consumed by the report exporter.
func (s *Service) ListCollaborations(ctx context.Context) (out []domain.Collaboration, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_collaborations", start, err) }(s.nowFn())

	out, err = s.collaborations.Filter(ctx, repo.Query[domain.Collaboration]{
		Less: func(a, b domain.Collaboration) bool {
			if a.ProjectName != b.ProjectName {
				return a.ProjectName < b.ProjectName
			}
			return a.ID < b.ID
		},
		Include: []domain.Relation{domain.RelationObservations},
	})
	if err != nil {
		return nil, fmt.Errorf("list collaborations: %w", err)
	}
	return out, nil
}
