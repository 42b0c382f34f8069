// Package version provides build metadata for the fabricscan binary.
package version

import (
	"fmt"
	"runtime"
)

// Injected at build time with -ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Struct is the version information in a structured form.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Info returns a one-line version string.
func Info() string {
	return fmt.Sprintf("fabricscan %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns the version information.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
