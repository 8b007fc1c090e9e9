package testsupport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formstate/pkg/dynamic"
)

// LoadDescriptors reads a JSON array of question descriptors from path.
func LoadDescriptors(t *testing.T, path string) []dynamic.Descriptor {
	t.Helper()

	out, err := LoadDescriptorsFromPath(path)
	if err != nil {
		t.Fatalf("load descriptors: %v", err)
	}
	return out
}

// LoadDescriptorsFromPath is LoadDescriptors for callers without a testing.T.
func LoadDescriptorsFromPath(path string) ([]dynamic.Descriptor, error) {
	if path == "" {
		return nil, errors.New("testsupport: descriptor path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read descriptors: %w", err)
	}
	var out []dynamic.Descriptor
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal descriptors: %w", err)
	}
	return out, nil
}

// ServeFile starts an httptest server answering every request with the JSON
// file at path. The server is closed when the test ends.
func ServeFile(t *testing.T, path string) *httptest.Server {
	t.Helper()

	body := MustReadGolden(t, path)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a context that is cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
