// Package version holds build metadata injected via ldflags.
package version

// Overridden by the release build; local builds report dev.
//
//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
