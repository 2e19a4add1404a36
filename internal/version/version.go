// Package version reports build metadata for the guppi binary.
package version

import (
	"runtime/debug"
)

// Set with -ldflags "-X github.com/samcharles93/guppi/internal/version.Version=...".
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Resolve fills anything not set at link time from the embedded build info.
func Resolve() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func String() string {
	info := Resolve()
	s := info.Version
	if info.Commit != "" {
		s += " (" + shortCommit(info.Commit)
		if info.Modified {
			s += "+dirty"
		}
		s += ")"
	}
	return s
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
