// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/longkey1/thoughtrelay/internal/version.Version=v1.0.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Short returns the version number only.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Info returns a multi-line description of the build.
func Info() string {
	commit := Commit
	if commit == "" {
		commit = "unknown"
	}
	buildTime := BuildTime
	if buildTime == "" {
		buildTime = "unknown"
	}
	return fmt.Sprintf("thoughtrelay %s\n  commit:  %s\n  built:   %s\n  go:      %s",
		Short(), commit, buildTime, runtime.Version())
}
