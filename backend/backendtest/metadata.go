package backendtest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmgilman/go/storage/core"
)

// TestMetadata tests core.MetadataSupporter.
// Skips if the backend doesn't implement it.
func TestMetadata(t *testing.T, backend core.Backend, config Config) {
	ms, ok := backend.(core.MetadataSupporter)
	if !ok {
		t.Skip("MetadataSupporter not supported")
	}

	t.Run("SetBeforeWrite", func(t *testing.T) {
		want := core.Metadata{"owner": "ops", "purpose": "conformance"}
		if err := ms.SetMetadata("meta/doc.txt", want); err != nil {
			t.Fatalf("SetMetadata(meta/doc.txt): got error %v, want nil", err)
		}
		mustWrite(t, backend, "meta/doc.txt", []byte("document"))

		got, err := ms.Metadata("meta/doc.txt")
		if err != nil {
			t.Fatalf("Metadata(meta/doc.txt): got error %v, want nil", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Metadata(meta/doc.txt) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("NoMetadata", func(t *testing.T) {
		mustWrite(t, backend, "meta/plain.txt", []byte("plain"))

		got, err := ms.Metadata("meta/plain.txt")
		if err != nil {
			t.Fatalf("Metadata(meta/plain.txt): got error %v, want nil", err)
		}
		if len(got) != 0 {
			t.Errorf("Metadata(meta/plain.txt): got %v, want empty", got)
		}
	})

	t.Run("ContentUnaffected", func(t *testing.T) {
		if err := ms.SetMetadata("meta/content.txt", core.Metadata{"k": "v"}); err != nil {
			t.Fatalf("SetMetadata(meta/content.txt): got error %v, want nil", err)
		}
		mustWrite(t, backend, "meta/content.txt", []byte("payload"))

		got, err := backend.Read("meta/content.txt")
		if err != nil {
			t.Fatalf("Read(meta/content.txt): got error %v, want nil", err)
		}
		if string(got) != "payload" {
			t.Errorf("Read(meta/content.txt): got %q, want %q", got, "payload")
		}
	})

	t.Run("ReplacedOnUpdate", func(t *testing.T) {
		if err := ms.SetMetadata("meta/update.txt", core.Metadata{"version": "1"}); err != nil {
			t.Fatalf("SetMetadata(meta/update.txt): got error %v, want nil", err)
		}
		mustWrite(t, backend, "meta/update.txt", []byte("v1"))

		want := core.Metadata{"version": "2"}
		if err := ms.SetMetadata("meta/update.txt", want); err != nil {
			t.Fatalf("SetMetadata(meta/update.txt): got error %v, want nil", err)
		}
		if config.StagedMetadata {
			mustWrite(t, backend, "meta/update.txt", []byte("v2"))
		}

		got, err := ms.Metadata("meta/update.txt")
		if err != nil {
			t.Fatalf("Metadata(meta/update.txt): got error %v, want nil", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Metadata(meta/update.txt) mismatch (-want +got):\n%s", diff)
		}
	})
}
