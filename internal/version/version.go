// Package version provides build version information and runtime metadata.
package version

import (
	"fmt"
	"runtime"
)

// These are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a one-line version string.
func Info() string {
	return fmt.Sprintf("opencode-usage %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
