// Package filesystem provides lazy file handles over a pluggable storage
// backend.
//
// A Filesystem binds exactly one core.Backend and forwards key-addressed
// operations to it without caching anything. A File is a handle on a single
// key: it reads content on first use, remembers it, and serves later reads
// from memory.
//
//	fsys := filesystem.New(billy.NewMemory())
//	file := fsys.CreateFile("reports/2024.csv")
//
//	if _, err := file.SetContent([]byte("a,b\n1,2\n"), nil); err != nil {
//	    return err
//	}
//	data, err := file.Content(nil) // served from the handle, no backend read
//
// # Metadata
//
// Content, SetContent and Delete accept a metadata map. It is forwarded to the
// backend only when the map is non-empty and the backend implements
// core.MetadataSupporter; otherwise it is ignored.
//
// # Caching
//
// A File never invalidates its cached content or size on its own. Delete
// leaves the cache in place and Exists always asks the backend. Create a new
// handle to observe changes made through other handles.
//
// # Thread Safety
//
// A Filesystem is safe for concurrent use when its backend is. File handles
// are not safe for concurrent use; serialize access to a shared handle.
package filesystem
