// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags. Development builds run with defaults.
package build

import (
	"errors"
	"fmt"
)

// Info is the build metadata of the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String returns a one-line version banner.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = defaults()
)

func defaults() Info {
	return Info{
		Name:        "visualizer",
		Description: "Real-time audio spectrum visualizer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags values into the build information. Flags
// that were not set keep their defaults and are reported in the returned
// error, which callers may treat as a warning.
func Initialize() error {
	info := defaults()
	var errs []error
	set := func(dst *string, val, flag string) {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is not set", flag))
			return
		}
		*dst = val
	}
	set(&info.Name, buildName, "BuildName")
	set(&info.Time, buildTime, "BuildTime")
	set(&info.Commit, buildCommit, "BuildCommit")
	set(&info.Version, buildVersion, "BuildVersion")

	buildInfo = info
	return errors.Join(errs...)
}

// Get returns the current build information.
func Get() Info {
	return buildInfo
}
