package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"collabcore/internal/storage"
	"collabcore/pkg/domain"
)

func TestNewStoreDefaultsPath(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() != "collabcore.db" {
		t.Fatalf("unexpected default path %q", store.Path())
	}
}

func TestMutatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "collab.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	realized := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	err = store.Mutate(context.Background(), func(st *storage.State) error {
		st.Collaborations["c1"] = domain.Collaboration{ID: "c1", ProjectName: "Alpha", RealizedAt: &realized}
		st.Observations["obs-1"] = domain.Observation{ID: "obs-1", CollaborationID: "c1", RecordedAt: realized}
		st.Users["walter.bates"] = domain.User{Name: "walter.bates", PasswordHash: "hash"}
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	err = reopened.View(context.Background(), func(st *storage.State) error {
		c, ok := st.Collaborations["c1"]
		if !ok {
			t.Fatalf("collaboration not hydrated")
		}
		if c.RealizedAt == nil || !c.RealizedAt.Equal(realized) {
			t.Fatalf("realization timestamp lost: %+v", c)
		}
		if _, ok := st.Observations["obs-1"]; !ok {
			t.Fatalf("observation not hydrated")
		}
		if st.Users["walter.bates"].PasswordHash != "hash" {
			t.Fatalf("user not hydrated")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestFailedMutationDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collab.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	boom := errors.New("boom")
	err = store.Mutate(context.Background(), func(st *storage.State) error {
		st.Users["ghost"] = domain.User{Name: "ghost"}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	_ = reopened.View(context.Background(), func(st *storage.State) error {
		if len(st.Users) != 0 {
			t.Fatalf("failed mutation persisted: %+v", st.Users)
		}
		return nil
	})
}
