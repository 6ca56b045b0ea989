package utils

import (
	"runtime/debug"
)

const unknownVersion = "unknown"

// Version is injected at build time:
//
//	go build -ldflags "-X github.com/temirov/backupfiles/internal/utils.Version=v1.2.3"
var Version = ""

// GetApplicationVersion returns the linker-injected version, then the module version recorded
// in the build info, then "unknown".
func GetApplicationVersion() string {
	if Version != "" {
		return Version
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		return buildInfo.Main.Version
	}
	return unknownVersion
}
