// Package domain defines the persistent entities, value types, and error
// taxonomy used by collabcore.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in error values and persistence buckets.
const (
	// EntityCollaboration identifies a collaboration record.
	EntityCollaboration EntityType = "collaboration"
	// EntityObservation identifies an observation record.
	EntityObservation EntityType = "observation"
	// EntityUser identifies a user record.
	EntityUser EntityType = "user"
)

// Category classifies the kind of support a collaboration pledges.
type Category string

// Canonical collaboration categories.
const (
	CategoryEconomic Category = "economic"
	CategoryMaterial Category = "material"
	CategoryLabor    Category = "labor"
	CategoryOther    Category = "other"
)

// ParseCategory validates a category string against the canonical set.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryEconomic, CategoryMaterial, CategoryLabor, CategoryOther:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown collaboration category %q", s)
	}
}

// LifecycleState describes where a collaboration sits in its lifecycle.
type LifecycleState string

// Collaboration lifecycle states. A collaboration may move open -> realized
// without ever being committed; nothing leaves realized.
const (
	StateOpen      LifecycleState = "open"
	StateCommitted LifecycleState = "committed"
	StateRealized  LifecycleState = "realized"
)

// Relation names an eagerly loadable association of a record kind. Each
// repository registers the relations its record supports; unknown relations
// are rejected rather than silently ignored.
type Relation string

// RelationObservations expands a collaboration's attached observations.
const RelationObservations Relation = "observations"

// Collaboration represents a pledge of support from one organization toward
// one stage of one project.
type Collaboration struct {
	ID          string   `json:"id"`
	ProjectName string   `json:"project"` // denormalized for audit reports
	Description string   `json:"description"`
	Category    Category `json:"category"`
	// OrganizationID is the pledging organization.
	OrganizationID string `json:"organization_id"`
	ProjectID      string `json:"project_id"`
	StageID        string `json:"stage_id"`
	// CommittedOrganizationID is set once when an organization takes charge.
	CommittedOrganizationID *string `json:"committed_organization_id"`
	// RealizedAt is set once when the collaboration is carried out.
	RealizedAt   *time.Time    `json:"realized_at"`
	Observations []Observation `json:"observations"`
}

// Key returns the primary key of the collaboration.
func (c Collaboration) Key() string { return c.ID }

// Realized reports whether the realization timestamp has been set.
func (c Collaboration) Realized() bool { return c.RealizedAt != nil }

// Committed reports whether an organization has taken charge of the collaboration.
func (c Collaboration) Committed() bool { return c.CommittedOrganizationID != nil }

// State derives the lifecycle state from the two set-once fields.
func (c Collaboration) State() LifecycleState {
	switch {
	case c.Realized():
		return StateRealized
	case c.Committed():
		return StateCommitted
	default:
		return StateOpen
	}
}

// Clone returns a deep copy of the collaboration.
func (c Collaboration) Clone() Collaboration {
	cp := c
	if c.CommittedOrganizationID != nil {
		id := *c.CommittedOrganizationID
		cp.CommittedOrganizationID = &id
	}
	if c.RealizedAt != nil {
		ts := *c.RealizedAt
		cp.RealizedAt = &ts
	}
	if c.Observations != nil {
		cp.Observations = make([]Observation, len(c.Observations))
		for i, o := range c.Observations {
			cp.Observations[i] = o.Clone()
		}
	}
	return cp
}

// Observation is a timestamped annotation attached to a collaboration.
type Observation struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	CollaborationID string    `json:"collaboration_id"`
	RecordedAt      time.Time `json:"recorded_at"`
	// ResolvedAt is set once when the observation is addressed.
	ResolvedAt *time.Time `json:"resolved_at"`
}

// Key returns the primary key of the observation.
func (o Observation) Key() string { return o.ID }

// Resolved reports whether the resolution timestamp has been set.
func (o Observation) Resolved() bool { return o.ResolvedAt != nil }

// Clone returns a deep copy of the observation.
func (o Observation) Clone() Observation {
	cp := o
	if o.ResolvedAt != nil {
		ts := *o.ResolvedAt
		cp.ResolvedAt = &ts
	}
	return cp
}

// User is an authentication principal. The name acts as the primary key.
type User struct {
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// Key returns the natural key of the user.
func (u User) Key() string { return u.Name }

// Clone returns a copy of the user.
func (u User) Clone() User { return u }
