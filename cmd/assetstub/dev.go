package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetstub/assetstub/internal/watcher"
)

// runDev implements the "assetstub dev" command: emit once, then watch
// the source base and re-emit on every change batch. Each batch runs a
// fresh pass with its own state; only the emit cache is shared so
// unchanged stubs are not rewritten.
func runDev(args []string) int {
	devFlags := flag.NewFlagSet("dev", flag.ExitOnError)
	opts := parseEmitFlags(devFlags, args)

	env, code := setupEnvironment(opts)
	if code != 0 {
		return code
	}

	fmt.Fprintln(os.Stderr, "performing initial emission...")
	if stats, err := env.runPass(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "emitted %d stub(s), skipped %d unchanged\n", stats.written, stats.skipped)
	}
	env.saveCache()

	reemit := func(events []watcher.Event) {
		fmt.Fprintf(os.Stderr, "\ndetected %d change(s), re-emitting...\n", len(events))
		stats, err := env.runPass()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		env.saveCache()
		fmt.Fprintf(os.Stderr, "emitted %d stub(s), skipped %d unchanged\n", stats.written, stats.skipped)
		if stats.failed {
			fmt.Fprintln(os.Stderr, "pass finished with errors, waiting for changes...")
		}
	}

	debounce := time.Duration(env.cfg.Watch.DebounceMs) * time.Millisecond
	w := watcher.New([]string{env.cfg.SourceBase}, env.cfg.Watch.Extensions, debounce, reemit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		w.Stop()
	}()

	fmt.Fprintln(os.Stderr, "watching for changes...")
	w.Watch()

	return 0
}
