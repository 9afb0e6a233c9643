// SPDX-License-Identifier: MIT
//
// Package build manages build information embedded into the binary at
// compile time via linker flags: application name, build timestamp,
// Git commit hash, and semantic version.
package build

import "fmt"

type ldFlags struct {
	Name    string // Application name
	Time    string // Build timestamp (RFC3339)
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation. Default values of "unknown" are used
// during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "vocalscope",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}
)

// Initialize copies build information from ldflags variables into the
// buildFlags struct. Must be called early in program startup. Missing
// flags leave the development defaults in place; a name set to the
// empty string via ldflags is rejected.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildFlags.Name == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}

	return nil
}

// GetBuildFlags returns the current build information. Safe to call
// before Initialize; development defaults are returned in that case.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
