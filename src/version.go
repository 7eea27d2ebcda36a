package kisslink

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via `-ldflags "-X 'kisslink.KISSLINK_VERSION=X'"`
var KISSLINK_VERSION string

func getBuildSettingOrDefault(bi *debug.BuildInfo, key string, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}

	return defaultValue
}

func PrintVersion() {
	var version = KISSLINK_VERSION
	if version == "" {
		version = "development"
	}

	fmt.Printf("kisslink version %s\n", version)

	var buildInfo, ok = debug.ReadBuildInfo()
	if !ok {
		return
	}

	var buildCommit = getBuildSettingOrDefault(buildInfo, "vcs.revision", "UNKNOWN")
	var buildTime = getBuildSettingOrDefault(buildInfo, "vcs.time", "UNKNOWN")

	fmt.Printf("commit %s built %s\n", buildCommit, buildTime)
}
