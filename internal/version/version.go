// Package version reports which build of asmsurface produced a hash.
// Surface hashes are only comparable between runs of the same hasher
// build, so the CLI's version command prints enough to tell two builds
// apart and the MCP server advertises the same in its implementation
// info.
package version

import (
	"fmt"
	rdebug "runtime/debug"
)

// Version is the semantic version of the hasher.
const Version = "0.1.0"

// String describes this binary: the version plus, when the binary was
// built from a git checkout, the VCS revision the Go linker stamped
// into it (no ldflags required at build time).
func String() string {
	revision, dirty := vcsInfo()
	switch {
	case revision == "":
		return "asmsurface " + Version
	case dirty:
		return fmt.Sprintf("asmsurface %s (%s, modified)", Version, revision)
	default:
		return fmt.Sprintf("asmsurface %s (%s)", Version, revision)
	}
}

func vcsInfo() (revision string, dirty bool) {
	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return revision, dirty
}
