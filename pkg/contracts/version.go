package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the ECL engine
	Version = "1.0.0"

	// APIVersion is the version of the HTTP API
	APIVersion = "v1"
)

// Set at build time with -ldflags "-X .../pkg/contracts.BuildTime=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionString returns a one-line version description for CLI output
func VersionString(program string) string {
	return fmt.Sprintf("%s v%s (api %s, commit %s, built %s, %s %s/%s)",
		program, Version, APIVersion, GitCommit, BuildTime,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
