package buildinfo

import "runtime"

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for UI/logging.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String is the one-line form printed by the version command.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ", " + runtime.Version() + ")"
}

// Attrs returns the build fields as alternating slog key/value pairs.
func Attrs() []any {
	return []any{"version", Version, "commit", Commit, "date", Date}
}
