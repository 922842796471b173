package version

import "runtime/debug"

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/kgview/pkg/version.Version=v1.2.3"
var Version = "v0.1.0"

func init() {
	// `go install module@version` builds carry the module version.
	if info, ok := debug.ReadBuildInfo(); ok && Version == "v0.1.0" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = v
		}
	}
}
