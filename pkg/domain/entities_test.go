package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "economic", want: CategoryEconomic},
		{in: "material", want: CategoryMaterial},
		{in: "labor", want: CategoryLabor},
		{in: "other", want: CategoryOther},
		{in: "charity", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCategory(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollaborationState(t *testing.T) {
	now := time.Now().UTC()
	org := "org-2"

	open := Collaboration{ID: "c1"}
	if open.State() != StateOpen || open.Realized() || open.Committed() {
		t.Fatalf("expected open state, got %s", open.State())
	}

	committed := Collaboration{ID: "c2", CommittedOrganizationID: &org}
	if committed.State() != StateCommitted {
		t.Fatalf("expected committed state, got %s", committed.State())
	}

	realized := Collaboration{ID: "c3", RealizedAt: &now}
	if realized.State() != StateRealized {
		t.Fatalf("expected realized state, got %s", realized.State())
	}

	// Realization dominates commitment.
	both := Collaboration{ID: "c4", CommittedOrganizationID: &org, RealizedAt: &now}
	if both.State() != StateRealized {
		t.Fatalf("expected realized state, got %s", both.State())
	}
}

func TestCollaborationCloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	org := "org-1"
	c := Collaboration{
		ID:                      "c1",
		CommittedOrganizationID: &org,
		RealizedAt:              &now,
		Observations: []Observation{
			{ID: "o1", CollaborationID: "c1", RecordedAt: now},
		},
	}
	cp := c.Clone()

	*cp.CommittedOrganizationID = "org-9"
	*cp.RealizedAt = now.Add(time.Hour)
	cp.Observations[0].Description = "mutated"

	if *c.CommittedOrganizationID != "org-1" {
		t.Fatalf("clone shares committed organization pointer")
	}
	if !c.RealizedAt.Equal(now) {
		t.Fatalf("clone shares realization timestamp pointer")
	}
	if c.Observations[0].Description != "" {
		t.Fatalf("clone shares observation slice")
	}
}

func TestObservationCloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	o := Observation{ID: "o1", ResolvedAt: &now}
	cp := o.Clone()
	*cp.ResolvedAt = now.Add(time.Minute)
	if !o.ResolvedAt.Equal(now) {
		t.Fatalf("clone shares resolution timestamp pointer")
	}
}

func TestErrorHelpers(t *testing.T) {
	nf := NotFoundError{Entity: EntityCollaboration, ID: "c1"}
	if !IsNotFound(nf) {
		t.Fatalf("IsNotFound(NotFoundError) = false")
	}
	if !IsNotFound(fmt.Errorf("get: %w", nf)) {
		t.Fatalf("IsNotFound should unwrap")
	}
	if IsConflict(nf) {
		t.Fatalf("IsConflict(NotFoundError) = true")
	}

	c := ConflictError{Entity: EntityUser, Detail: "name taken"}
	if !IsConflict(fmt.Errorf("register: %w", c)) {
		t.Fatalf("IsConflict should unwrap")
	}
	if IsNotFound(c) {
		t.Fatalf("IsNotFound(ConflictError) = true")
	}
	if IsNotFound(errors.New("boom")) || IsConflict(errors.New("boom")) {
		t.Fatalf("helpers matched unrelated error")
	}
}
