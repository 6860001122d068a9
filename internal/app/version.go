package app

import "fmt"

const serviceName = "mediguard"

// Release metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/2400030292/MedGuard-AI/internal/app.Version=1.4.0 -X ...Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion is the version string reported by /health and the startup log.
func BuildVersion() string {
	if Commit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s+%s (%s)", Version, Commit, BuildTime)
}
