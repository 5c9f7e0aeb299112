package config

import (
	"fmt"
	"runtime/debug"
)

// Go toolchain version, main module path and Git information from build metadata.
type VersionInfo struct {
	GoVersion string `json:"go"`
	Package   string `json:"package"`
	Revision  string `json:"revision"`
}

var Version = readVersion()

func readVersion() VersionInfo {
	v := VersionInfo{Revision: "devel"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	v.GoVersion = info.GoVersion
	v.Package = info.Path

	revision, dirty := "", ""
	for _, setting := range info.Settings {
		switch {
		case setting.Key == "vcs.revision":
			revision = setting.Value
		case setting.Key == "vcs.modified" && setting.Value == "true":
			dirty = "-dirty"
		}
	}
	if revision != "" {
		v.Revision = fmt.Sprintf("%.*s%s", 7, revision, dirty)
	}
	return v
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", v.Package, v.Revision, v.GoVersion)
}
