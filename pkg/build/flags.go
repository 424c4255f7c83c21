// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the wavbeep binary at link
// time. The values are injected with -ldflags, for example:
//
//	go build -ldflags "-X wavbeep/pkg/build.buildVersion=0.3.0 \
//	    -X wavbeep/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds run without them and report the defaults below.
package build

import "fmt"

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the one-line version banner used by --version.
func (i *Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        "wavbeep",
		Description: "Convert a .wav recording into a sequence of PC speaker beeps.",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags variables into the build information. It
// returns an error naming the first missing flag; the defaults stay in place
// for every field that was not stamped, so callers may treat the error as a
// warning on development builds.
func Initialize() error {
	if buildName != "" {
		buildInfo.Name = buildName
	}
	if buildTime != "" {
		buildInfo.Time = buildTime
	}
	if buildCommit != "" {
		buildInfo.Commit = buildCommit
	}
	if buildVersion != "" {
		buildInfo.Version = buildVersion
	}

	switch {
	case buildTime == "":
		return fmt.Errorf("BuildTime is required")
	case buildCommit == "":
		return fmt.Errorf("BuildCommit is required")
	case buildVersion == "":
		return fmt.Errorf("BuildVersion is required")
	}
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildInfo
}
