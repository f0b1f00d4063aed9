package pattern

import (
	"errors"
	"regexp"
	"testing"
)

func mustMatch(t *testing.T, p Pattern, path string) bool {
	t.Helper()
	ok, err := p.Matches(path)
	if err != nil {
		t.Fatalf("Matches(%q) returned error: %v", path, err)
	}
	return ok
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   bool
	}{
		{"src/a", "src/abc.png", true}, // prefix, not full match
		{"src/a", "src/a", true},
		{"src/a", "lib/src/a", false}, // anchored at start
		{"src/a", "src", false},
		{"", "anything", true},
		{"src/[a].png", "src/[a].png.map", true}, // metacharacters are literal
		{"src/[a].png", "src/a.png", false},
	}
	for _, tt := range tests {
		if got := mustMatch(t, Prefix(tt.prefix), tt.path); got != tt.want {
			t.Errorf("Prefix(%q).Matches(%q) = %v, want %v", tt.prefix, tt.path, got, tt.want)
		}
	}
}

func TestRegexp(t *testing.T) {
	p := Regexp(regexp.MustCompile(`\.png$`))
	if !mustMatch(t, p, "src/icons/x.png") {
		t.Error("regexp should match anywhere in path")
	}
	if mustMatch(t, p, "src/icons/x.png.map") {
		t.Error("anchored regexp should respect its own anchor")
	}

	// Unanchored expression matches mid-path
	mid := Regexp(regexp.MustCompile(`icons`))
	if !mustMatch(t, mid, "src/icons/x.png") {
		t.Error("unanchored regexp should match substring")
	}
}

func TestFunc(t *testing.T) {
	p := Func(func(path string) bool { return path == "exact" })
	if !mustMatch(t, p, "exact") {
		t.Error("func pattern should use predicate result")
	}
	if mustMatch(t, p, "other") {
		t.Error("func pattern should reject when predicate is false")
	}
}

func TestList(t *testing.T) {
	p := List(Prefix("a.png"), Prefix("b.png"))
	if !mustMatch(t, p, "b.png") {
		t.Error("list should OR-combine sub-patterns")
	}
	if mustMatch(t, p, "c.png") {
		t.Error("list should reject when no sub-pattern matches")
	}
	if mustMatch(t, List(), "anything") {
		t.Error("empty list should match nothing")
	}
}

func TestListShortCircuitsOnFirstMatch(t *testing.T) {
	calls := 0
	p := List(
		Func(func(string) bool { calls++; return true }),
		Func(func(string) bool { calls++; return false }),
	)
	mustMatch(t, p, "x")
	if calls != 1 {
		t.Errorf("list evaluated %d sub-patterns, want 1", calls)
	}
}

func TestListPropagatesError(t *testing.T) {
	p := List(Prefix("no"), Pattern{})
	_, err := p.Matches("x")
	var upe *UnsupportedPatternError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnsupportedPatternError, got %v", err)
	}
}

func TestInvalidPattern(t *testing.T) {
	_, err := Pattern{}.Matches("x")
	var upe *UnsupportedPatternError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnsupportedPatternError, got %v", err)
	}
	if upe.Kind != KindInvalid {
		t.Errorf("error kind = %v, want %v", upe.Kind, KindInvalid)
	}
}

func TestMatchesIsDeterministic(t *testing.T) {
	p := List(Prefix("src/"), Regexp(regexp.MustCompile(`\.css$`)))
	for _, path := range []string{"src/a.png", "theme/site.css", "readme.md"} {
		first := mustMatch(t, p, path)
		second := mustMatch(t, p, path)
		if first != second {
			t.Errorf("Matches(%q) not deterministic: %v then %v", path, first, second)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(Pattern{}).IsZero() {
		t.Error("zero value should report IsZero")
	}
	if Prefix("").IsZero() {
		t.Error("constructed pattern should not report IsZero")
	}
}
