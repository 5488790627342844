// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

// Name is reported to Horizon as the client application.
const Name = "trustfreeze"

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Full returns Version, decorated with commit and build time when both were
// set at link time.
func Full() string {
	if BuildTime == "unknown" || GitCommit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}
