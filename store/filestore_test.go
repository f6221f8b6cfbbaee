package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	st, err := NewFileStore(fs, "resources")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	doc := map[string]any{"General": map[string]any{"badge_size": 100}}
	if err := st.Put(context.Background(), "badge-settings-review", doc); err != nil {
		t.Fatalf("put returned error: %v", err)
	}

	raw, err := st.Get(context.Background(), "badge-settings-review")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}

	var got map[string]map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("stored document is unreadable: %v", err)
	}
	if got["General"]["badge_size"] != float64(100) {
		t.Fatalf("unexpected stored document: %v", got)
	}
}

func TestFileStoreAbsentResourceMeansDefaults(t *testing.T) {
	st, err := NewFileStore(afero.NewMemMapFs(), "resources")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	raw, err := st.Get(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("absent resource must not error, got %v", err)
	}
	if raw != nil {
		t.Fatalf("absent resource must yield nil, got %s", raw)
	}
}

func TestFileStoreRejectsBadResourceNames(t *testing.T) {
	st, err := NewFileStore(afero.NewMemMapFs(), "resources")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	for _, name := range []string{"", "  ", "../escape", "a/b", `a\b`} {
		if _, err := st.Get(context.Background(), name); !errors.Is(err, ErrBadResourceName) {
			t.Errorf("Get(%q) error = %v, want ErrBadResourceName", name, err)
		}
		if err := st.Put(context.Background(), name, map[string]any{}); !errors.Is(err, ErrBadResourceName) {
			t.Errorf("Put(%q) error = %v, want ErrBadResourceName", name, err)
		}
	}
}
