// Package build holds version information, overridden at link time with
// -ldflags "-X github.com/armadaproject/arrayjob/internal/arrayjob/build.ReleaseVersion=...".
package build

import "runtime"

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = runtime.Version()
)
