// Package core defines the contract between file handles and the storage
// backends they delegate to.
//
// A backend is anything that can address opaque byte content by key: a local
// directory, an in-memory tree, an object store bucket, a Redis keyspace or a
// database table. Backends implement the small required Backend interface and
// opt into extra behavior by implementing optional capability interfaces.
//
// # Required Contract
//
//   - Exists: report whether a key holds an object
//   - Read: return the full content of a key (ErrNotFound when absent)
//   - Write: store content under a key, optionally refusing to overwrite
//   - Delete: remove the object at a key (ErrNotFound when absent)
//   - CreateStream: return a Stream for incremental access to a key
//
// # Optional Capabilities
//
// Capabilities are discovered with type assertions, never by inspecting the
// concrete backend type:
//
//   - MetadataSupporter: per-key metadata maps
//   - SizeCalculator: size without reading the content
//   - ChecksumCalculator: checksum computed by the backend
//   - MimeTypeProvider: content type recorded by the backend
//   - MtimeProvider: last modification time
//   - Renamer: server-side rename
//
// Checking for a capability:
//
//	if ms, ok := backend.(core.MetadataSupporter); ok {
//	    err := ms.SetMetadata("report.pdf", core.Metadata{"owner": "ops"})
//	}
//
// # Errors
//
// Backends report a missing key with an error satisfying
// errors.Is(err, ErrNotFound). Every other failure is a storage failure and is
// returned as-is to the caller.
package core
