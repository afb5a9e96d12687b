// SPDX-License-Identifier: MIT
//
// Package build provides the build information embedded into the binary at
// compile time with linker flags:
//
//	go build -ldflags "-X equalizer/pkg/build.buildName=equalizer \
//		-X equalizer/pkg/build.buildTime=... \
//		-X equalizer/pkg/build.buildCommit=... \
//		-X equalizer/pkg/build.buildVersion=..."
//
// A binary built without any of the flags is a development build and falls
// back to the module information recorded by the Go toolchain.
package build

import (
	"fmt"
	"runtime/debug"
)

const (
	DefaultName        = "equalizer"
	DefaultDescription = "Real-time audio spectrum equalizer"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the information for --version style output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = defaults()
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

func defaults() Info {
	return Info{
		Name:        DefaultName,
		Description: DefaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags variables into the build information. When
// none is set the binary is treated as a development build; when only some
// are set, the first missing one is reported.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		buildInfo = development()
		return nil
	}

	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildInfo = Info{
		Name:        buildName,
		Description: DefaultDescription,
		Time:        buildTime,
		Commit:      buildCommit,
		Version:     buildVersion,
	}
	return nil
}

func development() Info {
	info := defaults()

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Time = s.Value
		}
	}
	return info
}

// Get returns the current build information.
func Get() Info {
	return buildInfo
}
