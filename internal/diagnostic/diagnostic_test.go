package diagnostic

import (
	"strings"
	"sync"
	"testing"
)

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "full",
			d: Diagnostic{
				Severity: SeverityWarning,
				Category: CategoryPathCollision,
				Resource: "/src/a.png",
				Message:  "destination equals source",
			},
			want: "/src/a.png - warning: [path-collision] destination equals source",
		},
		{
			name: "no resource",
			d: Diagnostic{
				Severity: SeverityError,
				Category: CategoryWriteFailed,
				Message:  "mkdir failed",
			},
			want: "error: [write-failed] mkdir failed",
		},
		{
			name: "with hint",
			d: Diagnostic{
				Severity: SeverityWarning,
				Category: CategoryAmbiguousAsset,
				Resource: "/src/a.png",
				Message:  "2 generated assets",
				Hint:     "first filename wins",
			},
			want: "/src/a.png - warning: [ambiguous-asset] 2 generated assets\n  hint: first filename wins",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectorCounts(t *testing.T) {
	c := NewCollector(false)
	c.Warn(CategoryPathCollision, "/src/a.png", "collision")
	c.Warn(CategoryAmbiguousAsset, "/src/b.png", "ambiguous")
	c.Error(CategoryWriteFailed, "/src/c.png", "write failed")

	if got := c.WarningCount(); got != 2 {
		t.Errorf("WarningCount() = %d, want 2", got)
	}
	if got := c.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount() = %d, want 1", got)
	}
	if !c.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if got := c.Summary(); got != "1 error(s), 2 warning(s)" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestCollectorStrictPromotesWarnings(t *testing.T) {
	c := NewCollector(true)
	c.Warn(CategoryPathCollision, "/src/a.png", "collision")
	if c.WarningCount() != 0 {
		t.Error("strict collector should record no warnings")
	}
	if c.ErrorCount() != 1 {
		t.Error("strict collector should promote warning to error")
	}
}

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector(false)
	if c.HasErrors() {
		t.Error("empty collector should have no errors")
	}
	if got := c.Summary(); got != "no issues" {
		t.Errorf("Summary() = %q, want %q", got, "no issues")
	}
	if got := c.FormatAll(); got != "" {
		t.Errorf("FormatAll() = %q, want empty", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Warn(CategoryPathCollision, "/src/a.png", "collision")
	c.Error(CategoryWriteFailed, "/src/a.png", "failed")
	if c.HasErrors() || c.WarningCount() != 0 || c.ErrorCount() != 0 {
		t.Error("nil collector should be a no-op")
	}
	if c.Diagnostics() != nil {
		t.Error("nil collector should return nil diagnostics")
	}
}

func TestFormatAll(t *testing.T) {
	c := NewCollector(false)
	c.Warn(CategoryPathCollision, "/src/a.png", "one")
	c.Error(CategoryWriteFailed, "/src/b.png", "two")

	out := c.FormatAll()
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("FormatAll() missing entries: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("FormatAll() should end with newline")
	}
}

func TestCollectorConcurrentRecording(t *testing.T) {
	c := NewCollector(false)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Error(CategoryWriteFailed, "/src/a.png", "failed")
		}()
	}
	wg.Wait()
	if got := c.ErrorCount(); got != 20 {
		t.Errorf("ErrorCount() = %d, want 20", got)
	}
}
