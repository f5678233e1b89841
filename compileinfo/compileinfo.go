// Package compileinfo reports which source revision a cdxs binary was built
// from, so results written by a tool can be traced back to the code.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
)

type CompileInfo struct {
	Binary     string // main package path, e.g. github.com/cdreader/cdxs/cmd/cdxsinfo
	Version    string // module version, "(devel)" for local builds
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

// Tool is the last element of the binary's package path.
func (c CompileInfo) Tool() string {
	if i := strings.LastIndex(c.Binary, "/"); i >= 0 {
		return c.Binary[i+1:]
	}
	return c.Binary
}

func (c CompileInfo) String() string {
	if c.Binary == "" {
		return "Build information is unavailable for this binary."
	}

	commit := c.Commit
	if commit == "" {
		commit = "unknown"
	} else if c.Modified {
		commit += " (with uncommitted changes)"
	}

	when := ""
	if c.CommitTime != "" {
		when = " from " + c.CommitTime
	}

	return fmt.Sprintf("%s %s built with %s at commit %s%s.", c.Tool(), c.Version, c.GoVersion, commit, when)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Binary:    z.Path,
		Version:   z.Main.Version,
		GoVersion: z.GoVersion,
	}
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
