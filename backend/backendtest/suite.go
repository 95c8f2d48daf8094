// Package backendtest provides a conformance test suite for validating
// storage backend implementations against the core.Backend contract.
//
// The suite exercises the required operations and, through type assertions,
// every optional capability a backend implements (metadata, size, checksum,
// MIME type, modification time and rename). Capabilities a backend does not
// implement are skipped.
//
// Example usage:
//
//	func TestMyBackend(t *testing.T) {
//	    backendtest.TestSuite(t, func() core.Backend {
//	        return mybackend.New()
//	    })
//	}
package backendtest

import (
	"slices"
	"testing"

	"github.com/jmgilman/go/storage/core"
)

// Config describes backend behavior the suite adapts to.
type Config struct {
	// StagedMetadata indicates metadata recorded with SetMetadata is only
	// persisted by the next Write (object stores).
	StagedMetadata bool

	// Concurrency is the number of goroutines used by the concurrent handles
	// test. Zero means 8.
	Concurrency int

	// SkipTests lists test groups to skip, e.g. "Stream" or "Capabilities".
	SkipTests []string
}

// DefaultConfig returns the configuration for backends that persist
// metadata immediately (local, memory, Redis, PostgreSQL).
func DefaultConfig() Config {
	return Config{}
}

// ObjectStoreConfig returns the configuration for S3-like backends.
func ObjectStoreConfig() Config {
	return Config{StagedMetadata: true}
}

// TestSuite runs every conformance test with DefaultConfig.
// newBackend must return a backend with no stored objects on each call.
func TestSuite(t *testing.T, newBackend func() core.Backend) {
	TestSuiteWithConfig(t, newBackend, DefaultConfig())
}

// TestSuiteWithConfig runs every conformance test with config.
func TestSuiteWithConfig(t *testing.T, newBackend func() core.Backend, config Config) {
	groups := []struct {
		name string
		run  func(*testing.T, core.Backend, Config)
	}{
		{"ReadWrite", TestReadWrite},
		{"Delete", TestDelete},
		{"Stream", TestStream},
		{"Metadata", TestMetadata},
		{"Capabilities", TestCapabilities},
		{"ConcurrentHandles", TestConcurrentHandles},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if slices.Contains(config.SkipTests, g.name) {
				t.Skip("Skipped by backend configuration")
			}
			g.run(t, newBackend(), config)
		})
	}
}

// mustWrite stores data at key or fails the test.
func mustWrite(t *testing.T, backend core.Backend, key string, data []byte) {
	t.Helper()
	if _, err := backend.Write(key, data, true); err != nil {
		t.Fatalf("Write(%q): setup failed: %v", key, err)
	}
}
