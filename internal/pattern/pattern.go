// Package pattern implements the matchers used to decide whether a
// discovered module counts as an emittable asset. A Pattern is a tagged
// union over four matcher kinds: a literal path prefix, a regular
// expression, a caller-supplied predicate, and an OR-combined list of
// sub-patterns.
package pattern

import (
	"fmt"
	"regexp"
)

// Kind identifies which matcher variant a Pattern carries.
type Kind int

const (
	// KindInvalid is the zero value. Matching an invalid pattern fails
	// with an UnsupportedPatternError rather than silently rejecting.
	KindInvalid Kind = iota
	KindPrefix
	KindRegexp
	KindFunc
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindPrefix:
		return "prefix"
	case KindRegexp:
		return "regexp"
	case KindFunc:
		return "func"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Pattern matches file paths. The zero value is invalid; construct
// patterns with Prefix, Regexp, Func, or List.
type Pattern struct {
	kind   Kind
	prefix string
	re     *regexp.Regexp
	fn     func(path string) bool
	list   []Pattern
}

// Prefix returns a pattern matching any path that starts with the
// literal string s. This is a prefix test, not a substring or full
// match: Prefix("src/a") matches "src/abc.png".
func Prefix(s string) Pattern {
	return Pattern{kind: KindPrefix, prefix: s}
}

// Regexp returns a pattern matching any path the expression matches
// anywhere. The expression is not anchored unless it anchors itself.
func Regexp(re *regexp.Regexp) Pattern {
	return Pattern{kind: KindRegexp, re: re}
}

// Func returns a pattern delegating to the given predicate.
func Func(fn func(path string) bool) Pattern {
	return Pattern{kind: KindFunc, fn: fn}
}

// List returns a pattern matching a path if ANY sub-pattern matches.
// Sub-patterns are evaluated in order and short-circuit on first match.
func List(patterns ...Pattern) Pattern {
	return Pattern{kind: KindList, list: patterns}
}

// Kind reports the matcher variant.
func (p Pattern) Kind() Kind { return p.kind }

// IsZero reports whether p is the unconfigured zero value. Callers use
// this to treat an unset predicate as "no constraint".
func (p Pattern) IsZero() bool { return p.kind == KindInvalid && p.fn == nil && p.re == nil }

// UnsupportedPatternError reports a pattern whose variant cannot be
// evaluated: the zero value, an unknown kind, or a variant missing its
// payload (e.g. a nil regexp).
type UnsupportedPatternError struct {
	Kind Kind
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("unsupported pattern of kind %q", e.Kind)
}

// Matches reports whether the pattern matches path. It is deterministic
// and side-effect-free for prefix, regexp, and list patterns; func
// patterns are as pure as the supplied predicate.
func (p Pattern) Matches(path string) (bool, error) {
	switch p.kind {
	case KindPrefix:
		return len(path) >= len(p.prefix) && path[:len(p.prefix)] == p.prefix, nil
	case KindRegexp:
		if p.re == nil {
			return false, &UnsupportedPatternError{Kind: p.kind}
		}
		return p.re.MatchString(path), nil
	case KindFunc:
		if p.fn == nil {
			return false, &UnsupportedPatternError{Kind: p.kind}
		}
		return p.fn(path), nil
	case KindList:
		for _, sub := range p.list {
			ok, err := sub.Matches(path)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, &UnsupportedPatternError{Kind: p.kind}
	}
}
