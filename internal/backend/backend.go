// Package backend abstracts the storage targets the emission pipeline
// writes to. A Target is an explicit union: either the host's default
// output filesystem or a caller-supplied one. Backends implement the
// narrow Writable surface; adapters are provided for afero filesystems
// and for primitive backends that lack native recursive directory
// creation.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Writable is the minimal surface the write pipeline needs from a
// storage backend. Implementations must be safe for concurrent calls
// on distinct paths.
type Writable interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(path string, data []byte, perm os.FileMode) error
}

// Kind identifies which variant a Target carries.
type Kind int

const (
	// KindDefault selects the host's default output backend.
	KindDefault Kind = iota
	// KindCustom selects a caller-supplied backend.
	KindCustom
)

// Target names one storage backend to write to. The zero value is the
// default target.
type Target struct {
	kind Kind
	fs   Writable
}

// Default returns the target selecting the host's default backend.
func Default() Target {
	return Target{kind: KindDefault}
}

// Custom returns a target writing to the given backend.
func Custom(fs Writable) Target {
	return Target{kind: KindCustom, fs: fs}
}

// Kind reports the target variant.
func (t Target) Kind() Kind { return t.kind }

// Resolve returns the backend to write to, substituting host for the
// default target.
func (t Target) Resolve(host Writable) Writable {
	if t.kind == KindCustom {
		return t.fs
	}
	return host
}

// Label returns a short name for the target, for diagnostics.
func (t Target) Label() string {
	if t.kind == KindCustom {
		return "custom"
	}
	return "default"
}

type aferoFS struct {
	fs afero.Fs
}

// Afero adapts an afero filesystem to the Writable surface.
func Afero(fs afero.Fs) Writable {
	return aferoFS{fs: fs}
}

func (a aferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a aferoFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(a.fs, path, data, perm)
}

// OS returns a Writable backed by the operating system filesystem.
func OS() Writable {
	return Afero(afero.NewOsFs())
}

// Primitive is the raw directory-entry surface of a backend without
// native recursive directory creation.
type Primitive interface {
	Mkdir(name string, perm os.FileMode) error
	Stat(name string) (os.FileInfo, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type primitiveFS struct {
	p Primitive
}

// FromPrimitive adapts a primitive backend to the Writable surface,
// supplying recursive directory creation via MkdirAll.
func FromPrimitive(p Primitive) Writable {
	return primitiveFS{p: p}
}

func (f primitiveFS) MkdirAll(path string, perm os.FileMode) error {
	return MkdirAll(f.p, path, perm)
}

func (f primitiveFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return f.p.WriteFile(path, data, perm)
}

// Mkdirer is the subset of Primitive needed for recursive directory
// creation.
type Mkdirer interface {
	Mkdir(name string, perm os.FileMode) error
	Stat(name string) (os.FileInfo, error)
}

// MkdirAll creates dir and any missing parents using only Mkdir and
// Stat. It is idempotent: an existing directory is not an error.
func MkdirAll(fsys Mkdirer, dir string, perm os.FileMode) error {
	if dir == "" {
		return nil
	}
	if info, err := fsys.Stat(dir); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("mkdir %s: not a directory", dir)
	}
	if parent := filepath.Dir(dir); parent != dir {
		if err := MkdirAll(fsys, parent, perm); err != nil {
			return err
		}
	}
	if err := fsys.Mkdir(dir, perm); err != nil {
		// Another writer may have created it between Stat and Mkdir.
		if info, statErr := fsys.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return err
	}
	return nil
}
