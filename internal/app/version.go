package app

import "fmt"

// Version, Commit and BuildTime are set via ldflags:
//
//	go build -ldflags "-X crmcore/internal/app.Version=1.0.0" ./cmd/crmd
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion formats the build identity for startup logs and /healthz.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}
