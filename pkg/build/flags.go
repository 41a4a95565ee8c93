// SPDX-License-Identifier: MIT
//
// Package build holds build metadata embedded into the binary at link time:
//
//	go build -ldflags "-X termvis/pkg/build.buildName=termvis -X termvis/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds carry the defaults below and report "dev".
package build

import (
	"errors"
	"fmt"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the info for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        "termvis",
		Description: "Real-time terminal audio visualizer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize validates and copies build information from ldflags variables.
// On error the development defaults stay in place, so callers may treat the
// error as a warning.
func Initialize() error {
	var missing []error
	if buildName == "" {
		missing = append(missing, errors.New("BuildName is required"))
	}
	if buildTime == "" {
		missing = append(missing, errors.New("BuildTime is required"))
	}
	if buildCommit == "" {
		missing = append(missing, errors.New("BuildCommit is required"))
	}
	if buildVersion == "" {
		missing = append(missing, errors.New("BuildVersion is required"))
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
