// Package version reports the adminagent build. Values come from ldflags
// when set, falling back to the build info the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/storekit/adminagent/version.version=1.0.0"
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Overridable with -ldflags.
var (
	version   = "dev"
	gitCommit = ""
	buildDate = ""
)

// shortCommitLen is the length of the short commit hash.
const shortCommitLen = 7

// Info is a resolved build description.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	Dirty     bool
}

// Current resolves the build info. ldflags values win; commit and dirty
// state fall back to the vcs stamps in debug.ReadBuildInfo.
func Current() Info {
	info := Info{Version: version, Commit: gitCommit, BuildDate: buildDate}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Commit == "" {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					info.Commit = setting.Value[:min(shortCommitLen, len(setting.Value))]
				}
			case "vcs.modified":
				info.Dirty = setting.Value == "true"
			}
		}
	}
	return info
}

// String renders the block printed by --version.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "adminagent version %s", i.Version)
	if i.Commit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", i.Commit)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", i.BuildDate)
	}
	return b.String()
}

// LogAttrs returns the build description as slog attributes.
func (i Info) LogAttrs() []any {
	attrs := []any{"version", i.Version}
	if i.Commit != "" {
		attrs = append(attrs, "commit", i.Commit)
	}
	if i.Dirty {
		attrs = append(attrs, "dirty", true)
	}
	if i.BuildDate != "" {
		attrs = append(attrs, "built", i.BuildDate)
	}
	return attrs
}
