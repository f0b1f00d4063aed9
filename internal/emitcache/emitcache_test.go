package emitcache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestCachePath(t *testing.T) {
	tests := []struct {
		destBase string
		want     string
	}{
		{"/project/build", "/project/build/.assetstub-cache"},
		{"build", "build/.assetstub-cache"},
	}
	for _, tt := range tests {
		if got := CachePath(tt.destBase); got != tt.want {
			t.Errorf("CachePath(%q) = %q, want %q", tt.destBase, got, tt.want)
		}
	}
}

func TestUnchangedAndRecord(t *testing.T) {
	c := New("opts")

	content := []byte("module.exports = \"/static/a.png\";\n")
	if c.Unchanged("/build/a.png", content) {
		t.Error("empty cache should report changed")
	}

	c.Record("/build/a.png", content)
	if !c.Unchanged("/build/a.png", content) {
		t.Error("recorded content should report unchanged")
	}
	if c.Unchanged("/build/a.png", []byte("different")) {
		t.Error("different content should report changed")
	}
	if c.Unchanged("/build/b.png", content) {
		t.Error("different destination should report changed")
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if c.Unchanged("/build/a.png", []byte("x")) {
		t.Error("nil cache should always report changed")
	}
	c.Record("/build/a.png", []byte("x")) // must not panic
	if c.Len() != 0 {
		t.Error("nil cache length should be 0")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetstub-cache")

	// Load non-existent = nil
	if c := Load(path, "opts"); c != nil {
		t.Fatal("Load should return nil for non-existent file")
	}

	original := New("opts")
	original.Record("/build/a.png", []byte("one"))
	original.Record("/build/b.png", []byte("two"))
	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(path, "opts")
	if loaded == nil {
		t.Fatal("Load returned nil after Save")
	}
	if loaded.Len() != 2 {
		t.Errorf("Len() = %d, want 2", loaded.Len())
	}
	if !loaded.Unchanged("/build/a.png", []byte("one")) {
		t.Error("loaded cache lost an entry")
	}
}

func TestLoadRejectsOptionsMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetstub-cache")

	if err := Save(path, New("old-options")); err != nil {
		t.Fatal(err)
	}
	if c := Load(path, "new-options"); c != nil {
		t.Error("Load should reject a cache built with different options")
	}
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetstub-cache")

	os.WriteFile(path, []byte(`{"v":99,"optionsHash":"opts","stubs":{}}`), 0644)
	if c := Load(path, "opts"); c != nil {
		t.Error("Load should reject a future schema version")
	}
}

func TestLoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetstub-cache")

	os.WriteFile(path, []byte("not json {{{"), 0644)
	if c := Load(path, "opts"); c != nil {
		t.Error("Load should return nil for corrupted JSON")
	}
}

func TestSaveAtomicity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetstub-cache")

	if err := Save(path, New("opts")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not exist after successful save")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "build", "sub", ".assetstub-cache")

	if err := Save(nested, New("opts")); err != nil {
		t.Fatalf("Save failed to create nested dirs: %v", err)
	}
	if Load(nested, "opts") == nil {
		t.Fatal("failed to load from nested directory")
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetstub-cache")

	os.WriteFile(path, []byte(`{"v":1}`), 0644)
	Delete(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cache file should not exist after delete")
	}

	// Delete non-existent — should not panic
	Delete(filepath.Join(dir, "nonexistent"))
}

func TestHashOptions(t *testing.T) {
	a := HashOptions("/src", "/build", "/static/", "stub")
	b := HashOptions("/src", "/build", "/static/", "stub")
	if a != b {
		t.Error("identical options should hash identically")
	}
	if a == HashOptions("/src", "/build", "/static/", "raw") {
		t.Error("different options should hash differently")
	}
	// Joining must not be ambiguous across part boundaries.
	if HashOptions("ab", "c") == HashOptions("a", "bc") {
		t.Error("part boundaries should affect the hash")
	}
}

func TestConcurrentRecord(t *testing.T) {
	c := New("opts")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Record(filepath.Join("/build", string(rune('a'+n))), []byte("x"))
		}(i)
	}
	wg.Wait()
	if c.Len() != 20 {
		t.Errorf("Len() = %d, want 20", c.Len())
	}
}
