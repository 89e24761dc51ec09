// Package version holds the program's identity, printed by the -v flag.
package version

// Program is the canonical binary name.
const Program = "fetchgo"

// Version is the release string. Overridden at build time via
// -ldflags "-X github.com/vk/fetchgo/internal/version.Version=...".
var Version = "0.3.0-dev"

// String returns the "name version" line printed by the version flag.
func String() string {
	return Program + " " + Version
}
