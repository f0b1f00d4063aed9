// Package testutil provides test utilities for assetstub, including
// helpers to materialize asset trees from inline file maps and to read
// back emitted stubs.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
)

// WriteTree creates every file in files under root, creating parent
// directories as needed. Keys are slash-separated relative paths.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// ReadStub reads an emitted stub file and returns the public-path
// string its export statement evaluates to.
func ReadStub(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stub %s: %v", path, err)
	}
	content := string(data)
	lit, ok := strings.CutPrefix(content, "module.exports = ")
	if !ok {
		t.Fatalf("stub %s has unexpected content %q", path, content)
	}
	lit = strings.TrimSuffix(lit, ";\n")
	var value string
	if err := json.Unmarshal([]byte(lit), &value); err != nil {
		t.Fatalf("stub %s literal %q is not parseable: %v", path, lit, err)
	}
	return value
}
