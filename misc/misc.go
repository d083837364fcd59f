// Package misc provides program identity helpers shared by commands and
// logging setup.
package misc

import (
	"runtime/debug"
)

const appName = "docstyle"

// set by the linker during release builds
var (
	version = ""
	gitHash = ""
)

// GetAppName returns short program name used for logs, temporary files and
// report entries.
func GetAppName() string {
	return appName
}

// GetVersion returns program version - either injected at link time or taken
// from module build information.
func GetVersion() string {
	if len(version) != 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) != 0 {
		return bi.Main.Version
	}
	return "unknown"
}

// GetGitHash returns VCS revision recorded in build information.
func GetGitHash() string {
	if len(gitHash) != 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}
