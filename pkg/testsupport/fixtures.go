package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// LoadTemplate reads a JSON or YAML template fixture. Testing helpers fail the
// test on error to keep table-driven tests concise.
func LoadTemplate(t *testing.T, path string) template.Full {
	t.Helper()

	tpl, err := LoadTemplateFromPath(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	return tpl
}

// LoadTemplateFromPath returns a template without requiring testing.T, so
// fixtures can be wired in setup functions.
func LoadTemplateFromPath(path string) (template.Full, error) {
	if path == "" {
		return template.Full{}, errors.New("testsupport: template path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return template.Full{}, fmt.Errorf("testsupport: read template: %w", err)
	}
	tpl, err := template.Parse(data, path)
	if err != nil {
		return template.Full{}, fmt.Errorf("testsupport: parse template: %w", err)
	}
	return tpl, nil
}

// MustIncoming decodes a JSON list of incoming wire fields.
func MustIncoming(t *testing.T, raw string) []fields.IncomingField {
	t.Helper()

	var out []fields.IncomingField
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("unmarshal incoming fields: %v", err)
	}
	return out
}

// SequenceIDs returns a deterministic, goroutine-safe identity generator
// producing prefix-1, prefix-2, ...
func SequenceIDs(prefix string) fields.IDGenerator {
	var n atomic.Int64
	return fields.IDFunc(func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	})
}

// JSONDiff decodes both payloads and returns a cmp diff of the decoded
// values, so formatting differences do not matter.
func JSONDiff(want, got []byte) (string, error) {
	var w, g any
	if err := json.Unmarshal(want, &w); err != nil {
		return "", fmt.Errorf("testsupport: decode want: %w", err)
	}
	if err := json.Unmarshal(got, &g); err != nil {
		return "", fmt.Errorf("testsupport: decode got: %w", err)
	}
	return cmp.Diff(w, g), nil
}

// AssertGoldenJSON marshals value and compares it with the golden file at
// path. When UPDATE_GOLDENS is set the golden is rewritten instead.
func AssertGoldenJSON(t *testing.T, path string, value any) {
	t.Helper()

	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if WriteMaybeGolden(t, path, payload) {
		return
	}
	diff, err := JSONDiff(MustReadGolden(t, path), payload)
	if err != nil {
		t.Fatalf("compare golden: %v", err)
	}
	if diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", path, diff)
	}
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

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
