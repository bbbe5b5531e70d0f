// newapi-admin - command-line admin console for new-api deployments
package main

import (
	"os"

	"github.com/RainInQAQ/new-api-admin/internal/cli"
	"github.com/RainInQAQ/new-api-admin/internal/version"
)

// Version information - overridden via LDFLAGS on release builds
var (
	Version   = "v0.3.1"
	BuildTime = "2026-08-31"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
