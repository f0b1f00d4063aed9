// Package stub renders the generated stand-in modules whose only
// behavior is evaluating to an asset's public path at load time.
package stub

import (
	"fmt"
	"path/filepath"

	"github.com/go-json-experiment/json"
)

// Module is the record the host build tool supplies for each
// discovered module. The core only reads it.
type Module struct {
	// Resource is the absolute source file path.
	Resource string

	// Assets lists the filenames the host tool generated for this
	// module, in production order.
	Assets []string

	// Source returns the module's raw processed content. It may be nil
	// when the caller never uses raw passthrough.
	Source func() (string, error)
}

// Mode selects the rendering strategy.
type Mode int

const (
	// ModeStub renders a module exporting the computed public path.
	ModeStub Mode = iota
	// ModeRaw emits the module's processed source verbatim, for hosts
	// whose loader chain already rewrote the module to a path string.
	ModeRaw
)

func (m Mode) String() string {
	switch m {
	case ModeStub:
		return "stub"
	case ModeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as written in config files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "stub":
		return ModeStub, nil
	case "raw":
		return ModeRaw, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want \"stub\" or \"raw\")", s)
	}
}

// AssetName picks the generated asset filename used to build the
// module's public path. Policy: no generated assets falls back to the
// module's path relative to sourceBase; exactly one uses it; more than
// one uses the first and reports ambiguous=true so the caller can
// record a warning.
func AssetName(m Module, sourceBase string) (name string, ambiguous bool) {
	switch len(m.Assets) {
	case 0:
		rel, err := filepath.Rel(sourceBase, m.Resource)
		if err != nil {
			return filepath.Base(m.Resource), false
		}
		// Public paths are URL space.
		return filepath.ToSlash(rel), false
	case 1:
		return m.Assets[0], false
	default:
		return m.Assets[0], true
	}
}

// RenderPublicPath renders a single-statement module that evaluates to
// publicPath + assetName. The string is emitted as a JSON literal so
// embedded quotes and backslashes round-trip losslessly.
func RenderPublicPath(publicPath, assetName string) (string, error) {
	quoted, err := json.Marshal(publicPath + assetName)
	if err != nil {
		return "", fmt.Errorf("quoting public path: %w", err)
	}
	return "module.exports = " + string(quoted) + ";\n", nil
}

// RenderRaw returns the module's processed source verbatim.
func RenderRaw(m Module) (string, error) {
	if m.Source == nil {
		return "", fmt.Errorf("module %s has no source", m.Resource)
	}
	src, err := m.Source()
	if err != nil {
		return "", fmt.Errorf("reading source of %s: %w", m.Resource, err)
	}
	return src, nil
}
