package filesystem

import (
	"bytes"

	"github.com/jmgilman/go/storage/core"
)

// File is a lazy handle on the object stored at one key.
//
// Content is fetched from the backend on first use and kept for the lifetime
// of the handle. Writes replace the cached content; nothing clears it.
// A size of 0 means either "not computed yet" or "empty".
//
// File is not safe for concurrent use.
type File struct {
	key  string
	name string
	fs   *Filesystem

	content []byte
	loaded  bool
	size    int64
}

// NewFile creates a handle bound to key on fsys. The name defaults to the key.
func NewFile(key string, fsys *Filesystem) *File {
	return &File{
		key:  key,
		name: key,
		fs:   fsys,
	}
}

// Key returns the backend key of the file.
func (f *File) Key() string {
	return f.key
}

// Name returns the display name of the file.
func (f *File) Name() string {
	return f.name
}

// SetName changes the display name. The key is not affected.
func (f *File) SetName(name string) {
	f.name = name
}

// Filesystem returns the Filesystem the handle is bound to.
func (f *File) Filesystem() *Filesystem {
	return f.fs
}

// Content returns the file content, reading it from the backend on first use.
//
// Once cached, the content is returned without contacting the backend and
// metadata is ignored. Otherwise non-empty metadata is forwarded to
// backends supporting it before the read. A missing object yields an error
// satisfying errors.Is(err, core.ErrNotFound).
//
// The returned slice is a copy; modifying it does not affect the cache.
func (f *File) Content(metadata core.Metadata) ([]byte, error) {
	if f.loaded {
		return bytes.Clone(f.content), nil
	}

	if _, err := f.forwardMetadata(metadata); err != nil {
		return nil, err
	}

	content, err := f.fs.Read(f.key)
	if err != nil {
		return nil, err
	}

	f.content = content
	f.loaded = true
	return bytes.Clone(content), nil
}

// SetContent replaces the file content and writes it to the backend,
// overwriting any existing object. It returns the number of bytes the backend
// reports as written, which also becomes the cached size.
//
// The cached content is updated before the write, so it holds the new bytes
// even when the write fails. The handle keeps its own copy of content.
func (f *File) SetContent(content []byte, metadata core.Metadata) (int64, error) {
	f.content = bytes.Clone(content)
	f.loaded = true

	if _, err := f.forwardMetadata(metadata); err != nil {
		return 0, err
	}

	n, err := f.fs.Write(f.key, f.content, true)
	if err != nil {
		return 0, err
	}

	f.size = n
	return n, nil
}

// Size returns the size of the file in bytes.
//
// A known non-zero size is returned as-is. Otherwise the size is derived from
// the content, fetching it if needed. A missing object is not an error: Size
// returns 0. Any other backend failure is returned.
func (f *File) Size() (int64, error) {
	if f.size != 0 {
		return f.size, nil
	}

	content, err := f.Content(nil)
	if err != nil {
		if core.IsNotFound(err) {
			f.fs.logger.Debug("size of missing file", "key", f.key)
			return 0, nil
		}
		return 0, err
	}

	f.size = int64(len(content))
	return f.size, nil
}

// SetSize overrides the cached size. No validation or backend call is made.
func (f *File) SetSize(size int64) {
	f.size = size
}

// Exists reports whether the backend currently holds an object at the key.
// The cache is neither consulted nor updated.
func (f *File) Exists() (bool, error) {
	return f.fs.Has(f.key)
}

// Delete removes the object from the backend after forwarding non-empty
// metadata to backends supporting it. The cached content and size are kept.
// A missing object yields an error satisfying errors.Is(err, core.ErrNotFound).
func (f *File) Delete(metadata core.Metadata) error {
	if _, err := f.forwardMetadata(metadata); err != nil {
		return err
	}
	return f.fs.Delete(f.key)
}

// CreateStream returns an unopened backend stream for the key.
func (f *File) CreateStream() core.Stream {
	return f.fs.CreateStream(f.key)
}

// forwardMetadata sends metadata to the backend when it is non-empty and the
// backend implements core.MetadataSupporter. It reports whether it did.
func (f *File) forwardMetadata(metadata core.Metadata) (bool, error) {
	if len(metadata) == 0 || !f.fs.IsMetadataSupported() {
		return false, nil
	}

	if err := f.fs.setMetadata(f.key, metadata); err != nil {
		return false, err
	}
	f.fs.logger.Debug("metadata forwarded", "key", f.key, "fields", len(metadata))
	return true, nil
}
