package core

import (
	"io"
	"time"
)

// BackendType represents the kind of storage behind a backend.
type BackendType int

const (
	// BackendTypeUnknown indicates the backend type is unknown or unspecified.
	BackendTypeUnknown BackendType = iota
	// BackendTypeLocal indicates a local disk backend.
	BackendTypeLocal
	// BackendTypeMemory indicates an in-memory backend.
	BackendTypeMemory
	// BackendTypeRemote indicates a remote backend (object storage, Redis, SQL).
	BackendTypeRemote
)

// String returns a string representation of the BackendType.
func (t BackendType) String() string {
	switch t {
	case BackendTypeLocal:
		return "local"
	case BackendTypeMemory:
		return "memory"
	case BackendTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Metadata is a set of auxiliary attributes attached to a stored object.
// How values are persisted is up to the backend; object stores for instance
// store them as strings.
type Metadata map[string]any

// Backend is the storage contract every backend MUST implement.
//
// Keys are opaque to callers. Each backend documents how it maps keys onto
// its own namespace (paths, object names, Redis keys, table rows).
type Backend interface {
	// Exists reports whether an object is stored at key.
	// A false result with a nil error means the object does not exist.
	Exists(key string) (bool, error)

	// Read returns the full content stored at key.
	// If no object exists, the error satisfies errors.Is(err, ErrNotFound).
	Read(key string) ([]byte, error)

	// Write stores data at key and returns the number of bytes written.
	// When overwrite is false and an object already exists at key, Write
	// fails with an error satisfying errors.Is(err, ErrExist).
	Write(key string, data []byte, overwrite bool) (int64, error)

	// Delete removes the object stored at key.
	// If no object exists, the error satisfies errors.Is(err, ErrNotFound).
	Delete(key string) error

	// CreateStream returns an unopened Stream bound to key.
	// No I/O happens until Stream.Open is called.
	CreateStream(key string) Stream

	// Type returns the kind of storage behind the backend.
	Type() BackendType
}

// Stream gives incremental access to the content of a single key.
// Streams are implemented and owned by backends; they are not safe for
// concurrent use.
type Stream interface {
	// Open prepares the stream for I/O. The flag is a bitmask of os.O_*
	// constants (O_RDONLY, O_WRONLY, O_RDWR, O_CREATE, O_TRUNC, O_APPEND...).
	//
	// Flag support varies by backend; unsupported flags fail with
	// ErrUnsupported. Opening a missing key for reading fails with
	// ErrNotFound.
	Open(flag int) error

	// Read reads from the stream. It is only valid in a read mode.
	io.Reader

	// Write writes to the stream. It is only valid in a write mode.
	// Written data may only become visible after Close.
	io.Writer

	// Close flushes pending writes and releases resources.
	// Close is idempotent.
	io.Closer

	// Key returns the key the stream is bound to.
	Key() string
}

// MetadataSupporter is implemented by backends that can attach metadata to
// objects.
//
// Use a type assertion to check whether a backend supports metadata:
//
//	if ms, ok := backend.(MetadataSupporter); ok {
//	    err := ms.SetMetadata("a.txt", Metadata{"owner": "ops"})
//	}
//
// Local and in-memory backends typically do not implement it.
type MetadataSupporter interface {
	// SetMetadata records metadata for key.
	// Object stores stage the metadata and send it with the next write.
	SetMetadata(key string, metadata Metadata) error

	// Metadata returns the metadata recorded for key.
	// It returns an empty map when the key has no metadata.
	Metadata(key string) (Metadata, error)
}

// SizeCalculator is implemented by backends that can report the size of an
// object without transferring its content.
type SizeCalculator interface {
	// Size returns the size in bytes of the object stored at key.
	Size(key string) (int64, error)
}

// ChecksumCalculator is implemented by backends that compute or store a
// checksum for each object (for example an S3 ETag).
type ChecksumCalculator interface {
	// Checksum returns the checksum of the object stored at key.
	Checksum(key string) (string, error)
}

// MimeTypeProvider is implemented by backends that record a content type.
type MimeTypeProvider interface {
	// MimeType returns the content type of the object stored at key.
	MimeType(key string) (string, error)
}

// MtimeProvider is implemented by backends that track modification times.
type MtimeProvider interface {
	// Mtime returns the last modification time of the object stored at key.
	Mtime(key string) (time.Time, error)
}

// Renamer is implemented by backends that can move an object to a new key.
//
// Object stores implement rename as copy + delete, which is not atomic.
type Renamer interface {
	// Rename moves the object stored at sourceKey to targetKey.
	Rename(sourceKey, targetKey string) error
}
