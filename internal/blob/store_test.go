package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"fs":     fsStore,
	}
}

func TestStorePutGetDeleteList(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			info, err := store.Put(ctx, "reports/a.csv", strings.NewReader("id,project\n"), PutOptions{
				ContentType: "text/csv",
				Metadata:    map[string]string{"rows": "0"},
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "reports/a.csv" || info.Size != int64(len("id,project\n")) {
				t.Fatalf("unexpected info: %+v", info)
			}

			got, rc, err := store.Get(ctx, "reports/a.csv")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			payload, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(payload) != "id,project\n" {
				t.Fatalf("payload mismatch: %q", payload)
			}
			if got.ContentType != "text/csv" || got.Metadata["rows"] != "0" {
				t.Fatalf("info not preserved: %+v", got)
			}

			if _, err := store.Put(ctx, "reports/b.json", strings.NewReader("{}"), PutOptions{}); err != nil {
				t.Fatalf("second put: %v", err)
			}
			infos, err := store.List(ctx, "reports/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 || infos[0].Key != "reports/a.csv" || infos[1].Key != "reports/b.json" {
				t.Fatalf("unexpected listing: %+v", infos)
			}

			removed, err := store.Delete(ctx, "reports/a.csv")
			if err != nil || !removed {
				t.Fatalf("delete: removed=%v err=%v", removed, err)
			}
			removed, err = store.Delete(ctx, "reports/a.csv")
			if err != nil || removed {
				t.Fatalf("second delete: removed=%v err=%v", removed, err)
			}
		})
	}
}

func TestStorePutIsCreateOnly(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Put(ctx, "k", strings.NewReader("one"), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			_, err := store.Put(ctx, "k", strings.NewReader("two"), PutOptions{})
			var exists *ExistsError
			if !errors.As(err, &exists) {
				t.Fatalf("expected ExistsError, got %v", err)
			}
		})
	}
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := store.Get(context.Background(), "missing")
			var notFound *NotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
		})
	}
}

func TestStoreRejectsTraversalKeys(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "  ", "../escape", "/absolute"} {
				if _, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{}); err == nil {
					t.Fatalf("key %q accepted", key)
				}
			}
		})
	}
}

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	t.Setenv("COLLABCORE_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}

	t.Setenv("COLLABCORE_BLOB_DRIVER", "fs")
	t.Setenv("COLLABCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(context.Background())
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}

	t.Setenv("COLLABCORE_BLOB_DRIVER", "carrier-pigeon")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
