package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const metaSuffix = ".meta.json"

// FilesystemStore persists blobs under a root directory, one file per key
// plus a JSON sidecar carrying the Info.
type FilesystemStore struct {
	root  string
	nowFn func() time.Time
}

// NewFilesystemStore creates the root directory if needed and returns a store.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob: filesystem root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FilesystemStore{root: root, nowFn: time.Now}, nil
}

var _ Store = (*FilesystemStore)(nil)

// Driver reports DriverFilesystem.
func (s *FilesystemStore) Driver() Driver { return DriverFilesystem }

// Root returns the store's root directory.
func (s *FilesystemStore) Root() string { return s.root }

func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("blob: key must not be empty")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." || path.IsAbs(cleaned) {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return cleaned, nil
}

func (s *FilesystemStore) pathFor(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes a new blob and its metadata sidecar. Existing keys are rejected.
func (s *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	key, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	dst := s.pathFor(key)
	if _, err := os.Stat(dst); err == nil {
		return Info{}, &ExistsError{Key: key}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Info{}, err
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Info{}, &ExistsError{Key: key}
		}
		return Info{}, err
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return Info{}, err
	}
	info := Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: s.nowFn().UTC(),
	}
	if err := s.writeInfo(dst, info); err != nil {
		os.Remove(dst)
		return Info{}, err
	}
	return info, nil
}

// Get opens a blob for reading along with its stored Info.
func (s *FilesystemStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, nil, err
	}
	key, err := sanitizeKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	dst := s.pathFor(key)
	info, err := s.readInfo(dst, key)
	if err != nil {
		return Info{}, nil, err
	}
	f, err := os.Open(dst)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, nil, &NotFoundError{Key: key}
		}
		return Info{}, nil, err
	}
	return info, f, nil
}

// Delete removes a blob and its sidecar, reporting whether it existed.
func (s *FilesystemStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := sanitizeKey(key)
	if err != nil {
		return false, err
	}
	dst := s.pathFor(key)
	if err := os.Remove(dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	os.Remove(dst + metaSuffix)
	return true, nil
}

// List walks the root and returns infos for keys with the given prefix.
func (s *FilesystemStore) List(ctx context.Context, prefix string) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var infos []Info
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.readInfo(p, key)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *FilesystemStore) writeInfo(dst string, info Info) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(dst+metaSuffix, payload, 0o644)
}

func (s *FilesystemStore) readInfo(dst, key string) (Info, error) {
	payload, err := os.ReadFile(dst + metaSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, &NotFoundError{Key: key}
		}
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(payload, &info); err != nil {
		return Info{}, fmt.Errorf("decode metadata for %q: %w", key, err)
	}
	info.Key = key
	return info, nil
}
