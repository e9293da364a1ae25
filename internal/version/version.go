// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the current release. Overridden by the build system.
	Version = "v0.1.0-dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the build metadata for `blipctl version`.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent is sent on every HTTP request to BLiP.
func UserAgent() string {
	return "blip-sdk-go/" + Version
}
