package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/assetstub/assetstub/internal/backend"
	"github.com/assetstub/assetstub/internal/config"
	"github.com/assetstub/assetstub/internal/diagnostic"
	"github.com/assetstub/assetstub/internal/emitcache"
	"github.com/assetstub/assetstub/internal/emitter"
	"github.com/assetstub/assetstub/internal/pattern"
	"github.com/assetstub/assetstub/internal/stub"
)

// runEmit executes a single emission pass: discover asset files under
// the source base, schedule eligible ones, write every stub.
func runEmit(args []string) int {
	emitFlags := flag.NewFlagSet("emit", flag.ExitOnError)

	opts := parseEmitFlags(emitFlags, args)

	env, code := setupEnvironment(opts)
	if code != 0 {
		return code
	}

	start := time.Now()
	stats, err := env.runPass()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	env.saveCache()

	fmt.Fprintf(os.Stderr, "emitted %d stub(s), skipped %d unchanged, in %s\n",
		stats.written, stats.skipped, time.Since(start).Round(time.Millisecond))
	if stats.failed {
		return 1
	}
	return 0
}

// emitOptions are the flag values shared by emit and dev.
type emitOptions struct {
	configPath string
	sourceBase string
	destBase   string
	publicPath string
	clean      bool
	noCache    bool
}

func parseEmitFlags(fs *flag.FlagSet, args []string) emitOptions {
	var opts emitOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to assetstub config file (assetstub.config.json)")
	fs.StringVar(&opts.sourceBase, "source", "", "Source base directory (overrides config)")
	fs.StringVar(&opts.destBase, "dest", "", "Destination base directory (overrides config)")
	fs.StringVar(&opts.publicPath, "public-path", "", "Public path prefix for emitted stubs")
	fs.BoolVar(&opts.clean, "clean", false, "Clean destination directory before emitting")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Rewrite every stub even if unchanged")
	fs.Parse(args)
	return opts
}

// environment bundles everything a pass needs: validated config, the
// emitter, and the emit cache.
type environment struct {
	cfg     *config.Config
	emitter *emitter.Emitter
	cache   *emitcache.Cache
	cacheAt string
}

// passStats summarizes one pass for reporting.
type passStats struct {
	written int
	skipped int
	failed  bool
}

// setupEnvironment loads config, applies flag overrides, and builds
// the emitter. Returns a non-zero exit code on fatal config errors.
func setupEnvironment(opts emitOptions) (*environment, int) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not get working directory: %v\n", err)
		return nil, 1
	}

	cfg, err := loadConfig(cwd, opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, 1
	}

	if opts.sourceBase != "" {
		cfg.SourceBase = opts.sourceBase
	}
	if opts.destBase != "" {
		cfg.DestinationBase = opts.destBase
	}
	if opts.publicPath != "" {
		cfg.PublicPath = opts.publicPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, 1
	}

	if !filepath.IsAbs(cfg.SourceBase) {
		cfg.SourceBase = filepath.Join(cwd, cfg.SourceBase)
	}
	if !filepath.IsAbs(cfg.DestinationBase) {
		cfg.DestinationBase = filepath.Join(cwd, cfg.DestinationBase)
	}

	if opts.clean {
		if err := cleanDir(cfg.DestinationBase); err != nil {
			fmt.Fprintf(os.Stderr, "warning: clean: %v\n", err)
		}
	}

	optionsHash := emitcache.HashOptions(
		cfg.SourceBase, cfg.DestinationBase, cfg.PublicPath, cfg.Mode)
	var cache *emitcache.Cache
	cacheAt := emitcache.CachePath(cfg.DestinationBase)
	if !opts.noCache {
		cache = emitcache.Load(cacheAt, optionsHash)
		if cache == nil {
			cache = emitcache.New(optionsHash)
		}
	}

	e, err := emitter.New(emitter.Options{
		SourceBase:      cfg.SourceBase,
		DestinationBase: cfg.DestinationBase,
		Test:            cfg.Test.Pattern(),
		Include:         cfg.Include.Pattern(),
		Exclude:         cfg.Exclude.Pattern(),
		Mode:            cfg.StubMode(),
		Cache:           cache,
		Strict:          cfg.Strict,
	}, backend.OS())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, 1
	}

	return &environment{cfg: cfg, emitter: e, cache: cache, cacheAt: cacheAt}, 0
}

// loadConfig loads the named config file, or the default
// assetstub.config.json when present, or defaults.
func loadConfig(cwd, configPath string) (*config.Config, error) {
	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(cwd, configPath)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "loaded config from %s\n", filepath.Base(configPath))
		return cfg, nil
	}

	defaultPath := filepath.Join(cwd, "assetstub.config.json")
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "loaded config from %s\n", filepath.Base(defaultPath))
		return cfg, nil
	}

	cfg := config.DefaultConfig()
	return &cfg, nil
}

// runPass walks the source base as a stand-in discovery host: every
// regular file is reported as a discovered module, then the pass is
// finalized.
func (env *environment) runPass() (passStats, error) {
	pass := env.emitter.NewPass(env.cfg.PublicPath)

	err := filepath.Walk(env.cfg.SourceBase, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		err = pass.ModuleDone(stub.Module{
			Resource: path,
			Source: func() (string, error) {
				data, err := os.ReadFile(path)
				return string(data), err
			},
		})
		var perr *pattern.UnsupportedPatternError
		if errors.As(err, &perr) {
			pass.Collector().Error(diagnostic.CategoryPatternInvalid, path, err.Error())
		}
		return err
	})
	if err != nil {
		if out := pass.Collector().FormatAll(); out != "" {
			fmt.Fprint(os.Stderr, out)
		}
		return passStats{}, fmt.Errorf("discovering modules: %w", err)
	}

	writeErr := pass.Finalize()

	if out := pass.Collector().FormatAll(); out != "" {
		fmt.Fprint(os.Stderr, out)
	}

	stats := passStats{
		written: pass.Scheduled() - pass.Skipped(),
		skipped: pass.Skipped(),
		failed:  writeErr != nil || pass.Collector().HasErrors(),
	}
	return stats, nil
}

func (env *environment) saveCache() {
	if env.cache == nil {
		return
	}
	if err := emitcache.Save(env.cacheAt, env.cache); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving emit cache: %v\n", err)
	}
}

// cleanDir removes a directory after safety checks.
func cleanDir(dir string) error {
	if dir == "/" || dir == "." || dir == ".." {
		return fmt.Errorf("refusing to clean dangerous path: %s", dir)
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "cleaning destination directory: %s\n", dir)
	return os.RemoveAll(dir)
}
