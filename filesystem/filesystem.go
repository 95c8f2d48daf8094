package filesystem

import (
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/errors"
)

// Filesystem binds key-addressed operations to a single backend.
//
// It holds no cache and no state beyond the backend reference; all caching
// lives in File. The backend is shared by every File created from the
// Filesystem and is never closed by it.
type Filesystem struct {
	backend           core.Backend
	metadataSupported bool
	logger            *slog.Logger
}

// New creates a Filesystem over backend.
// Optional capabilities of the backend are detected once, here.
func New(backend core.Backend, opts ...Option) *Filesystem {
	_, metadataSupported := backend.(core.MetadataSupporter)

	f := &Filesystem{
		backend:           backend,
		metadataSupported: metadataSupported,
		logger:            slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Backend returns the bound backend.
func (f *Filesystem) Backend() core.Backend {
	return f.backend
}

// IsMetadataSupported reports whether the bound backend implements
// core.MetadataSupporter.
func (f *Filesystem) IsMetadataSupported() bool {
	return f.metadataSupported
}

// Has reports whether an object exists at key.
func (f *Filesystem) Has(key string) (bool, error) {
	f.debug("has", key)
	return f.backend.Exists(key)
}

// Read returns the content stored at key.
// A missing key yields an error satisfying errors.Is(err, core.ErrNotFound).
func (f *Filesystem) Read(key string) ([]byte, error) {
	f.debug("read", key)
	return f.backend.Read(key)
}

// Write stores data at key and returns the number of bytes written.
// When overwrite is false, an existing object makes Write fail with
// core.ErrExist.
func (f *Filesystem) Write(key string, data []byte, overwrite bool) (int64, error) {
	f.debug("write", key, slog.Int("bytes", len(data)), slog.Bool("overwrite", overwrite))
	return f.backend.Write(key, data, overwrite)
}

// Delete removes the object stored at key.
// A missing key yields an error satisfying errors.Is(err, core.ErrNotFound).
func (f *Filesystem) Delete(key string) error {
	f.debug("delete", key)
	return f.backend.Delete(key)
}

// CreateStream returns an unopened stream for key.
func (f *Filesystem) CreateStream(key string) core.Stream {
	f.debug("stream", key)
	return f.backend.CreateStream(key)
}

// CreateFile returns a new handle bound to key. No backend call is made.
func (f *Filesystem) CreateFile(key string) *File {
	return NewFile(key, f)
}

// Get returns a handle bound to key.
// Unless create is true, Get fails with core.ErrNotFound when no object
// exists at key.
func (f *Filesystem) Get(key string, create bool) (*File, error) {
	if !create {
		exists, err := f.Has(key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.Wrap(
				&fs.PathError{Op: "get", Path: key, Err: core.ErrNotFound},
				errors.CodeNotFound,
				"file not found",
			)
		}
	}
	return f.CreateFile(key), nil
}

// Rename moves the object at sourceKey to targetKey.
// The source must exist and the target must not. The backend must implement
// core.Renamer.
func (f *Filesystem) Rename(sourceKey, targetKey string) error {
	renamer, ok := f.backend.(core.Renamer)
	if !ok {
		return unsupported("rename", sourceKey)
	}

	exists, err := f.Has(sourceKey)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrap(
			&fs.PathError{Op: "rename", Path: sourceKey, Err: core.ErrNotFound},
			errors.CodeNotFound,
			"source not found",
		)
	}

	exists, err = f.Has(targetKey)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrap(
			&fs.PathError{Op: "rename", Path: targetKey, Err: core.ErrExist},
			errors.CodeAlreadyExists,
			"target already exists",
		)
	}

	f.debug("rename", sourceKey, slog.String("target", targetKey))
	return renamer.Rename(sourceKey, targetKey)
}

// Size returns the size of the object at key, asking the backend when it
// implements core.SizeCalculator and reading the content otherwise.
func (f *Filesystem) Size(key string) (int64, error) {
	if sc, ok := f.backend.(core.SizeCalculator); ok {
		f.debug("size", key)
		return sc.Size(key)
	}

	content, err := f.Read(key)
	if err != nil {
		return 0, err
	}
	return int64(len(content)), nil
}

// Checksum returns the checksum of the object at key. Backends implementing
// core.ChecksumCalculator provide their own; otherwise it is the hex MD5 of
// the content.
func (f *Filesystem) Checksum(key string) (string, error) {
	if cc, ok := f.backend.(core.ChecksumCalculator); ok {
		f.debug("checksum", key)
		return cc.Checksum(key)
	}

	content, err := f.Read(key)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:]), nil
}

// MimeType returns the content type of the object at key. Backends
// implementing core.MimeTypeProvider report it; otherwise it is detected from
// the content.
func (f *Filesystem) MimeType(key string) (string, error) {
	if mp, ok := f.backend.(core.MimeTypeProvider); ok {
		f.debug("mimetype", key)
		return mp.MimeType(key)
	}

	content, err := f.Read(key)
	if err != nil {
		return "", err
	}
	return mimetype.Detect(content).String(), nil
}

// Mtime returns the last modification time of the object at key.
// The backend must implement core.MtimeProvider.
func (f *Filesystem) Mtime(key string) (time.Time, error) {
	mp, ok := f.backend.(core.MtimeProvider)
	if !ok {
		return time.Time{}, unsupported("mtime", key)
	}
	f.debug("mtime", key)
	return mp.Mtime(key)
}

// Metadata returns the metadata recorded for key.
// The backend must implement core.MetadataSupporter.
func (f *Filesystem) Metadata(key string) (core.Metadata, error) {
	ms, ok := f.backend.(core.MetadataSupporter)
	if !ok {
		return nil, unsupported("metadata", key)
	}
	f.debug("metadata", key)
	return ms.Metadata(key)
}

// setMetadata forwards metadata to the backend. Callers check support first.
func (f *Filesystem) setMetadata(key string, metadata core.Metadata) error {
	f.debug("setmetadata", key, slog.Int("fields", len(metadata)))
	return f.backend.(core.MetadataSupporter).SetMetadata(key, metadata)
}

func (f *Filesystem) debug(op, key string, attrs ...any) {
	args := append([]any{
		slog.String("op", op),
		slog.String("key", key),
		slog.String("backend", f.backend.Type().String()),
	}, attrs...)
	f.logger.Debug("backend call", args...)
}

func unsupported(op, key string) error {
	return errors.WithContext(
		errors.Wrap(core.ErrUnsupported, errors.CodeUnsupported, op+" not supported by backend"),
		"key", key,
	)
}
