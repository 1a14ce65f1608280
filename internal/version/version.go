package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version information, set at build time via ldflags
	Version   = "dev"     // Version string (e.g., "v0.1.0")
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

// GetVersion returns the ldflags version, else the module version from build
// info, else "dev"
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// GetFullVersion returns the version with commit and build time when known
func GetFullVersion() string {
	v := GetVersion()
	if GitCommit != "unknown" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v = fmt.Sprintf("%s (commit: %s)", v, short)
	}
	if BuildTime != "unknown" {
		v = fmt.Sprintf("%s built %s", v, BuildTime)
	}
	return v
}
