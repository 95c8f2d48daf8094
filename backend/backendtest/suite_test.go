package backendtest_test

import (
	"maps"
	"sync"
	"testing"

	"github.com/jmgilman/go/storage/backend/backendtest"
	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/stream"
)

// TestSuite_MapBackend validates the suite against a minimal map backend
// that only implements the required contract.
func TestSuite_MapBackend(t *testing.T) {
	backendtest.TestSuite(t, func() core.Backend {
		return &mapBackend{objects: map[string][]byte{}}
	})
}

type mapBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *mapBackend) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *mapBackend) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.Wrap(core.ErrNotFound, errors.CodeNotFound, "not found")
	}
	return append([]byte{}, data...), nil
}

func (m *mapBackend) Write(key string, data []byte, overwrite bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok && !overwrite {
		return 0, errors.Wrap(core.ErrExist, errors.CodeAlreadyExists, "exists")
	}
	m.objects[key] = append([]byte{}, data...)
	return int64(len(data)), nil
}

func (m *mapBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return errors.Wrap(core.ErrNotFound, errors.CodeNotFound, "not found")
	}
	delete(m.objects, key)
	return nil
}

func (m *mapBackend) CreateStream(key string) core.Stream {
	return stream.NewBuffer(m, key)
}

func (m *mapBackend) Type() core.BackendType {
	return core.BackendTypeMemory
}

func (m *mapBackend) snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.objects)
}

// TestSuite_SkipTests verifies that skipped groups don't touch the backend.
func TestSuite_SkipTests(t *testing.T) {
	b := &mapBackend{objects: map[string][]byte{}}
	cfg := backendtest.DefaultConfig()
	cfg.SkipTests = []string{"ReadWrite", "Delete", "Stream", "Metadata", "Capabilities", "ConcurrentHandles"}

	backendtest.TestSuiteWithConfig(t, func() core.Backend { return b }, cfg)

	if n := len(b.snapshot()); n != 0 {
		t.Errorf("skipped suite wrote %d objects, want 0", n)
	}
}
