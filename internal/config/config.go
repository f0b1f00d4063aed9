// Package config loads the assetstub configuration file
// (assetstub.config.json).
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/go-json-experiment/json"

	"github.com/assetstub/assetstub/internal/pattern"
	"github.com/assetstub/assetstub/internal/stub"
)

// Config represents the assetstub configuration.
type Config struct {
	SourceBase      string `json:"sourceBase"`
	DestinationBase string `json:"destinationBase"`

	// PublicPath is the host build's public-path prefix, treated as an
	// opaque string.
	PublicPath string `json:"publicPath,omitempty"`

	// Mode selects the rendering strategy: "stub" (default) or "raw".
	Mode string `json:"mode,omitempty"`

	Test    *PatternSpec `json:"test,omitempty"`
	Include *PatternSpec `json:"include,omitempty"`
	Exclude *PatternSpec `json:"exclude,omitempty"`

	// Strict promotes pass warnings to errors.
	Strict bool `json:"strict,omitempty"`

	Watch WatchConfig `json:"watch,omitempty"`
}

// WatchConfig specifies dev-mode watch settings.
type WatchConfig struct {
	// Extensions limits watching to these file extensions.
	Extensions []string `json:"extensions,omitempty"`
	// DebounceMs batches change events closer together than this.
	DebounceMs int `json:"debounceMs,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode: "stub",
		Watch: WatchConfig{
			Extensions: []string{
				".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
				".css", ".woff", ".woff2", ".ttf", ".eot",
			},
			DebounceMs: 100,
		},
	}
}

// Load reads and parses an assetstub config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %q: %w", path, err)
	}

	return &config, nil
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	if c.SourceBase == "" {
		return fmt.Errorf("sourceBase must not be empty")
	}
	if c.DestinationBase == "" {
		return fmt.Errorf("destinationBase must not be empty")
	}
	if _, err := stub.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounceMs must not be negative")
	}
	return nil
}

// StubMode returns the parsed rendering mode. Call Validate first.
func (c *Config) StubMode() stub.Mode {
	mode, err := stub.ParseMode(c.Mode)
	if err != nil {
		return stub.ModeStub
	}
	return mode
}

// PatternSpec is the config-file form of a pattern. Three JSON shapes
// are accepted:
//
//	"src/icons"              literal path prefix
//	{"regexp": "\\.png$"}    regular expression
//	["a", {"regexp": "b"}]   OR-combined list
type PatternSpec struct {
	kind   pattern.Kind
	prefix string
	re     *regexp.Regexp
	list   []PatternSpec
}

// UnmarshalJSON parses one of the three accepted shapes.
func (s *PatternSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty pattern")
	}

	switch trimmed[0] {
	case '"':
		var prefix string
		if err := json.Unmarshal(trimmed, &prefix); err != nil {
			return err
		}
		s.kind = pattern.KindPrefix
		s.prefix = prefix
		return nil
	case '[':
		var list []PatternSpec
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		s.kind = pattern.KindList
		s.list = list
		return nil
	case '{':
		var obj struct {
			Regexp string `json:"regexp"`
			Prefix string `json:"prefix"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		switch {
		case obj.Regexp != "":
			re, err := regexp.Compile(obj.Regexp)
			if err != nil {
				return fmt.Errorf("invalid pattern regexp %q: %w", obj.Regexp, err)
			}
			s.kind = pattern.KindRegexp
			s.re = re
		case obj.Prefix != "":
			s.kind = pattern.KindPrefix
			s.prefix = obj.Prefix
		default:
			return fmt.Errorf("pattern object must set \"regexp\" or \"prefix\"")
		}
		return nil
	default:
		return fmt.Errorf("pattern must be a string, object, or array, got %s", trimmed)
	}
}

// Pattern converts the spec to a matcher. A nil spec yields the zero
// Pattern, meaning "no constraint".
func (s *PatternSpec) Pattern() pattern.Pattern {
	if s == nil {
		return pattern.Pattern{}
	}
	switch s.kind {
	case pattern.KindPrefix:
		return pattern.Prefix(s.prefix)
	case pattern.KindRegexp:
		return pattern.Regexp(s.re)
	case pattern.KindList:
		subs := make([]pattern.Pattern, len(s.list))
		for i := range s.list {
			subs[i] = s.list[i].Pattern()
		}
		return pattern.List(subs...)
	default:
		return pattern.Pattern{}
	}
}
