// Package billy provides go-billy-backed storage backends for local disk and
// memory.
//
// Keys map onto slash-separated paths below the backend root. Parent
// directories are created on write. Neither backend supports metadata;
// both report size and modification time and can rename objects.
//
// Usage:
//
//	// Local disk rooted at a directory, created if missing
//	backend, err := billy.NewLocal("/var/lib/app/files", billy.WithCreateRoot())
//
//	// In-memory, for tests and temporary storage
//	backend := billy.NewMemory()
//
//	fsys := filesystem.New(backend)
//
// Local writes are atomic: content is written to a temporary file that is
// renamed over the destination, so readers never observe partial objects.
//
// # Thread Safety
//
// Backends (LocalFS, MemoryFS) are safe for concurrent use by multiple
// goroutines. Streams are not safe for concurrent use.
package billy
