// Package ttyguard stops terminal capability probing for invocations whose
// stdout is meant for another program. Import it for its side effect before
// any package that renders with lipgloss.
package ttyguard

import (
	"os"
	"strings"
)

// EnvTestMode marks test runs, which never talk to a real terminal.
const EnvTestMode = "KGV_TEST_MODE"

// Lipgloss and termenv probe the terminal background with OSC/DSR queries.
// Inside a real terminal that is harmless, but the replies end up in piped
// output and break JSON or DOT consumers. termenv skips the probe when CI is
// set, so machine-readable invocations set it early.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args, os.Getenv(EnvTestMode) != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}

	exporting := false
	toFile := false
	for i, arg := range args {
		switch {
		case arg == "--json", arg == "--version", arg == "--help", arg == "-h":
			return true
		case arg == "export" && i > 0:
			exporting = true
		case arg == "-o", arg == "--output", strings.HasPrefix(arg, "--output="), strings.HasPrefix(arg, "-o="):
			toFile = true
		}
	}
	// `kgv export` without -o writes the graph to stdout.
	return exporting && !toFile
}
