// Package version reports the version of sparcjit compiled into the running binary.
package version

import (
	"runtime/debug"
	"strings"
)

// Default is the version reported when the module version cannot be read from the build info, such as when
// running tests of this module itself.
const Default = "dev"

const modulePath = "github.com/sparcjit/sparcjit"

// GetVersion returns the version of sparcjit the binary was built with.
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return versionOf(info)
}

func versionOf(info *debug.BuildInfo) string {
	if info.Main.Path == modulePath {
		return normalize(info.Main.Version)
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		return normalize(dep.Version)
	}
	return Default
}

func normalize(v string) string {
	if v == "" || v == "(devel)" {
		return Default
	}
	// Strip the +dirty style build metadata, which does not change the code.
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	return v
}
