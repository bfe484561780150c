// Package version carries build-time metadata, set via ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/hrygo/chatrouter/internal/version.Version=v1.2.3"
var Version = "0.0.0-dev"

// GitCommit is the commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"
