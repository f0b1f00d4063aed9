package main

import (
	"fmt"
	"os"
	"strings"
)

const version = "0.0.1-dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		// No subcommand — default to emit
		return runEmit(os.Args[1:])
	}

	switch os.Args[1] {
	case "emit":
		return runEmit(os.Args[2:])
	case "dev":
		return runDev(os.Args[2:])
	case "--version", "-v":
		fmt.Println("assetstub", version)
		return 0
	case "--help", "-h":
		printUsage()
		return 0
	default:
		// Check if first arg starts with - (it's a flag, not a subcommand)
		if strings.HasPrefix(os.Args[1], "-") {
			return runEmit(os.Args[1:])
		}
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println("assetstub - emits stub modules resolving to asset public paths")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  assetstub [flags]             Emit stubs once (default)")
	fmt.Println("  assetstub emit [flags]        Emit stubs once")
	fmt.Println("  assetstub dev [flags]         Watch mode (emit + re-emit on change)")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --version, -v          Print version and exit")
	fmt.Println("  --help, -h             Print this help message")
	fmt.Println()
	fmt.Println("Emit Flags:")
	fmt.Println("  --config <path>        Path to assetstub.config.json")
	fmt.Println("  --source <dir>         Source base directory (overrides config)")
	fmt.Println("  --dest <dir>           Destination base directory (overrides config)")
	fmt.Println("  --public-path <prefix> Public path prefix for emitted stubs")
	fmt.Println("  --clean                Clean destination directory before emitting")
	fmt.Println("  --no-cache             Rewrite every stub even if unchanged")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  assetstub")
	fmt.Println("  assetstub emit --source src --dest build --public-path /static/")
	fmt.Println("  assetstub dev --config assetstub.config.json")
	fmt.Println()
}
