// Package emitter implements the asset emission pipeline: deciding
// which discovered modules are emittable assets, remapping their paths
// from a source base to a destination base, rendering stub modules,
// and writing them to one or more storage backends.
//
// The host build tool drives it through two signals per build pass:
// ModuleDone fires zero or more times while modules are processed (no
// I/O happens here, state only accumulates), and Finalize fires once
// afterwards, performing every write and returning only when all of
// them have settled.
package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/assetstub/assetstub/internal/backend"
	"github.com/assetstub/assetstub/internal/diagnostic"
	"github.com/assetstub/assetstub/internal/emitcache"
	"github.com/assetstub/assetstub/internal/pattern"
	"github.com/assetstub/assetstub/internal/stub"
)

// Options configures an Emitter. SourceBase and DestinationBase are
// required; unset patterns impose no constraint; an empty Targets list
// means "write to the host's default backend only".
type Options struct {
	SourceBase      string
	DestinationBase string

	Test    pattern.Pattern
	Include pattern.Pattern
	Exclude pattern.Pattern

	Targets []backend.Target
	Mode    stub.Mode

	// Cache, when non-nil, lets passes skip writes whose destination
	// already holds identical content (watch-mode rebuilds).
	Cache *emitcache.Cache

	// Strict promotes pass warnings to errors.
	Strict bool
}

// Emitter holds validated configuration shared by all passes. Per-pass
// state lives in Pass so concurrent passes (watch-mode rebuilds) stay
// isolated.
type Emitter struct {
	opts Options
	host backend.Writable
}

// New validates opts and returns an Emitter writing default-target
// output to host.
func New(opts Options, host backend.Writable) (*Emitter, error) {
	if opts.SourceBase == "" {
		return nil, fmt.Errorf("sourceBase must not be empty")
	}
	if opts.DestinationBase == "" {
		return nil, fmt.Errorf("destinationBase must not be empty")
	}
	needsHost := len(opts.Targets) == 0
	for _, t := range opts.Targets {
		if t.Kind() == backend.KindDefault {
			needsHost = true
		}
	}
	if needsHost && host == nil {
		return nil, fmt.Errorf("a default backend is selected but no host backend was provided")
	}
	return &Emitter{opts: opts, host: host}, nil
}

// ShouldEmit reports whether the module at resource is treated as an
// emittable asset. Predicates are checked in order — test, include,
// exclude — short-circuiting on the first rejection; exclude rejects
// when it matches. It is pure: no I/O, deterministic for deterministic
// patterns.
func (e *Emitter) ShouldEmit(resource string) (bool, error) {
	if !e.opts.Test.IsZero() {
		ok, err := e.opts.Test.Matches(resource)
		if err != nil {
			return false, fmt.Errorf("evaluating test pattern: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	if !e.opts.Include.IsZero() {
		ok, err := e.opts.Include.Matches(resource)
		if err != nil {
			return false, fmt.Errorf("evaluating include pattern: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	if !e.opts.Exclude.IsZero() {
		ok, err := e.opts.Exclude.Matches(resource)
		if err != nil {
			return false, fmt.Errorf("evaluating exclude pattern: %w", err)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// ComputeDestination derives the output path for resource by taking
// its path relative to sourceBase and resolving that against
// destinationBase. Resources outside sourceBase legitimately climb via
// parent segments; that is intentional, not an error.
func ComputeDestination(sourceBase, destinationBase, resource string) (string, error) {
	rel, err := filepath.Rel(sourceBase, resource)
	if err != nil {
		return "", fmt.Errorf("relativizing %s against %s: %w", resource, sourceBase, err)
	}
	return filepath.Join(destinationBase, rel), nil
}

// target is one scheduled write: a destination path and the rendered
// content, fanned out to every configured backend during Finalize.
type target struct {
	resource string
	dest     string
	content  []byte
}

// Pass accumulates the state of one build pass: the resources already
// scheduled, the pending writes, and the diagnostics. Create a fresh
// Pass per build pass; deferred writes never touch a previous pass's
// state.
type Pass struct {
	e          *Emitter
	publicPath string
	seen       map[string]bool
	queue      []target
	diags      *diagnostic.Collector
	skipped    int
	finalized  bool
}

// NewPass starts a build pass. publicPath is the host's opaque
// public-path prefix for this build.
func (e *Emitter) NewPass(publicPath string) *Pass {
	return &Pass{
		e:          e,
		publicPath: publicPath,
		seen:       make(map[string]bool),
		diags:      diagnostic.NewCollector(e.opts.Strict),
	}
}

// ModuleDone handles the host's "module finished processing" signal.
// It evaluates eligibility, deduplicates by resource, remaps the path,
// and renders the stub — but performs no I/O. The host may report the
// same resource any number of times; at most one write is scheduled.
//
// The returned error is fatal (unsupported pattern, unreadable raw
// source); non-fatal conditions are recorded as diagnostics instead.
func (p *Pass) ModuleDone(m stub.Module) error {
	if p.finalized {
		return fmt.Errorf("module %s reported after pass was finalized", m.Resource)
	}
	if p.seen[m.Resource] {
		return nil
	}

	ok, err := p.e.ShouldEmit(m.Resource)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	p.seen[m.Resource] = true

	dest, err := ComputeDestination(p.e.opts.SourceBase, p.e.opts.DestinationBase, m.Resource)
	if err != nil {
		return err
	}
	if dest == filepath.Clean(m.Resource) {
		p.diags.WarnWithHint(diagnostic.CategoryPathCollision, m.Resource,
			fmt.Sprintf("destination %s equals the source path, skipping emission", dest),
			"check that sourceBase and destinationBase differ")
		return nil
	}

	content, err := p.render(m)
	if err != nil {
		return err
	}
	p.queue = append(p.queue, target{resource: m.Resource, dest: dest, content: []byte(content)})
	return nil
}

func (p *Pass) render(m stub.Module) (string, error) {
	if p.e.opts.Mode == stub.ModeRaw {
		return stub.RenderRaw(m)
	}
	name, ambiguous := stub.AssetName(m, p.e.opts.SourceBase)
	if ambiguous {
		p.diags.WarnWithHint(diagnostic.CategoryAmbiguousAsset, m.Resource,
			fmt.Sprintf("module produced %d generated assets, using %q", len(m.Assets), name),
			"the first filename in production order wins")
	}
	return stub.RenderPublicPath(p.publicPath, name)
}

// Finalize handles the host's "after emit" signal. Every scheduled
// write, on every configured backend, runs concurrently; Finalize
// returns only when all of them have settled. Failures are recorded
// per backend and the first error is returned; writes that succeeded
// stay on disk. There is no cancellation and no retry.
func (p *Pass) Finalize() error {
	if p.finalized {
		return fmt.Errorf("pass already finalized")
	}
	p.finalized = true

	targets := p.e.opts.Targets
	if len(targets) == 0 {
		targets = []backend.Target{backend.Default()}
	}
	cache := p.e.opts.Cache

	var g errgroup.Group
	fails := make([]atomic.Int32, len(p.queue))
	skipped := make([]bool, len(p.queue))
	for i, t := range p.queue {
		if cache.Unchanged(t.dest, t.content) {
			skipped[i] = true
			p.skipped++
			continue
		}
		for _, b := range targets {
			g.Go(func() error {
				if err := p.write(b, t); err != nil {
					fails[i].Add(1)
					return err
				}
				return nil
			})
		}
	}
	err := g.Wait()

	// Record only destinations every backend accepted, so a failed
	// backend is retried on the next pass.
	for i, t := range p.queue {
		if !skipped[i] && fails[i].Load() == 0 {
			cache.Record(t.dest, t.content)
		}
	}
	return err
}

func (p *Pass) write(b backend.Target, t target) error {
	fsys := b.Resolve(p.e.host)
	if err := fsys.MkdirAll(filepath.Dir(t.dest), os.FileMode(0755)); err != nil {
		err = fmt.Errorf("creating directory for %s on %s backend: %w", t.dest, b.Label(), err)
		p.diags.Error(diagnostic.CategoryWriteFailed, t.resource, err.Error())
		return err
	}
	if err := fsys.WriteFile(t.dest, t.content, os.FileMode(0644)); err != nil {
		err = fmt.Errorf("writing %s on %s backend: %w", t.dest, b.Label(), err)
		p.diags.Error(diagnostic.CategoryWriteFailed, t.resource, err.Error())
		return err
	}
	return nil
}

// Scheduled returns how many unique modules have writes scheduled.
func (p *Pass) Scheduled() int {
	return len(p.queue)
}

// Skipped returns how many scheduled writes Finalize skipped because
// the cache showed identical content already on disk.
func (p *Pass) Skipped() int {
	return p.skipped
}

// Destinations returns the destination path of every scheduled write,
// in scheduling order.
func (p *Pass) Destinations() []string {
	out := make([]string, len(p.queue))
	for i, t := range p.queue {
		out[i] = t.dest
	}
	return out
}

// Diagnostics returns the pass's accumulated warnings and errors.
func (p *Pass) Diagnostics() []diagnostic.Diagnostic {
	return p.diags.Diagnostics()
}

// Collector exposes the pass's diagnostic collector.
func (p *Pass) Collector() *diagnostic.Collector {
	return p.diags
}
