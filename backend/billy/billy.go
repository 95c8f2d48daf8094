package billy

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/natefinch/atomic"
)

// LocalFS stores objects as files below a root directory.
type LocalFS struct {
	base
	root string
}

// MemoryFS stores objects in memory.
type MemoryFS struct {
	base
}

// NewLocal creates a local disk backend rooted at root.
// The root must be an existing directory unless WithCreateRoot is given.
func NewLocal(root string, opts ...Option) (*LocalFS, error) {
	cfg := newConfig(opts)

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CodeInvalidConfig, "failed to resolve root directory")
	}

	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err) && cfg.createRoot:
		if err := os.MkdirAll(abs, 0755); err != nil {
			return nil, serrors.Wrapf(err, serrors.CodeInvalidConfig, "failed to create root directory %s", abs)
		}
	case err != nil:
		return nil, serrors.Wrapf(err, serrors.CodeInvalidConfig, "invalid root directory %s", abs)
	case !info.IsDir():
		return nil, serrors.Newf(serrors.CodeInvalidConfig, "root %s is not a directory", abs)
	}

	return &LocalFS{
		base: base{bfs: osfs.New(abs), perm: cfg.perm},
		root: abs,
	}, nil
}

// NewMemory creates an empty in-memory backend.
func NewMemory(opts ...Option) *MemoryFS {
	cfg := newConfig(opts)
	return &MemoryFS{
		base: base{bfs: memfs.New(), perm: cfg.perm},
	}
}

// Root returns the absolute root directory of the backend.
func (lfs *LocalFS) Root() string {
	return lfs.root
}

// Write stores data at key by writing a temporary file and renaming it over
// the destination.
func (lfs *LocalFS) Write(key string, data []byte, overwrite bool) (int64, error) {
	name := normalize(key)
	target, err := lfs.path(key)
	if err != nil {
		return 0, err
	}

	if !overwrite {
		if _, err := lfs.bfs.Stat(name); err == nil {
			return 0, translate("write", key, os.ErrExist)
		}
	}
	if err := lfs.ensureParent("write", key, name); err != nil {
		return 0, err
	}

	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return 0, translate("write", key, err)
	}
	if err := os.Chmod(target, lfs.perm); err != nil {
		return 0, translate("write", key, err)
	}

	return int64(len(data)), nil
}

// Type returns core.BackendTypeLocal.
func (lfs *LocalFS) Type() core.BackendType {
	return core.BackendTypeLocal
}

// path resolves key to a path on disk, refusing keys that leave the root.
func (lfs *LocalFS) path(key string) (string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(normalize(key), "/"))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", translate("write", key, billy.ErrCrossedBoundary)
	}
	return filepath.Join(lfs.root, rel), nil
}

// Type returns core.BackendTypeMemory.
func (mfs *MemoryFS) Type() core.BackendType {
	return core.BackendTypeMemory
}

// base implements the backend operations shared by LocalFS and MemoryFS.
type base struct {
	bfs  billy.Filesystem
	perm fs.FileMode
}

// Unwrap returns the underlying billy.Filesystem.
func (b *base) Unwrap() billy.Filesystem {
	return b.bfs
}

// Exists reports whether a regular file is stored at key.
func (b *base) Exists(key string) (bool, error) {
	info, err := b.bfs.Stat(normalize(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, translate("exists", key, err)
	}
	return !info.IsDir(), nil
}

// Read returns the content of the file stored at key.
func (b *base) Read(key string) ([]byte, error) {
	name := normalize(key)
	if _, err := b.stat("read", key); err != nil {
		return nil, err
	}

	f, err := b.bfs.Open(name)
	if err != nil {
		return nil, translate("read", key, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, translate("read", key, err)
	}
	return data, nil
}

// Write stores data at key, creating parent directories as needed.
func (b *base) Write(key string, data []byte, overwrite bool) (int64, error) {
	name := normalize(key)
	if err := b.ensureParent("write", key, name); err != nil {
		return 0, err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flag |= os.O_EXCL
	}

	f, err := b.bfs.OpenFile(name, flag, b.perm)
	if err != nil {
		return 0, translate("write", key, err)
	}

	n, err := f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return int64(n), translate("write", key, err)
	}
	return int64(n), nil
}

// Delete removes the file stored at key.
func (b *base) Delete(key string) error {
	if _, err := b.stat("delete", key); err != nil {
		return err
	}
	return translate("delete", key, b.bfs.Remove(normalize(key)))
}

// CreateStream returns an unopened stream over the file at key.
func (b *base) CreateStream(key string) core.Stream {
	return &Stream{b: b, key: key, name: normalize(key)}
}

// Size returns the size of the file stored at key.
func (b *base) Size(key string) (int64, error) {
	info, err := b.stat("size", key)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Mtime returns the modification time of the file stored at key.
func (b *base) Mtime(key string) (time.Time, error) {
	info, err := b.stat("mtime", key)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Rename moves the file at sourceKey to targetKey.
func (b *base) Rename(sourceKey, targetKey string) error {
	if _, err := b.stat("rename", sourceKey); err != nil {
		return err
	}

	target := normalize(targetKey)
	if err := b.ensureParent("rename", targetKey, target); err != nil {
		return err
	}
	return translate("rename", sourceKey, b.bfs.Rename(normalize(sourceKey), target))
}

// stat returns file info for key, treating directories as missing objects.
func (b *base) stat(op, key string) (fs.FileInfo, error) {
	info, err := b.bfs.Stat(normalize(key))
	if err != nil {
		return nil, translate(op, key, err)
	}
	if info.IsDir() {
		return nil, translate(op, key, os.ErrNotExist)
	}
	return info, nil
}

// ensureParent creates the parent directories of name.
func (b *base) ensureParent(op, key, name string) error {
	dir := path.Dir(name)
	if dir == "." || dir == "/" {
		return nil
	}
	return translate(op, key, b.bfs.MkdirAll(dir, 0755))
}

// normalize converts keys to clean, slash-separated paths.
func normalize(key string) string {
	return filepath.ToSlash(filepath.Clean(key))
}

// Compile-time interface checks.
var (
	_ core.Backend        = (*LocalFS)(nil)
	_ core.SizeCalculator = (*LocalFS)(nil)
	_ core.MtimeProvider  = (*LocalFS)(nil)
	_ core.Renamer        = (*LocalFS)(nil)
	_ core.Backend        = (*MemoryFS)(nil)
	_ core.SizeCalculator = (*MemoryFS)(nil)
	_ core.MtimeProvider  = (*MemoryFS)(nil)
	_ core.Renamer        = (*MemoryFS)(nil)
)
