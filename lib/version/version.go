// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build version of Carillon binaries.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/carillon-foundation/carillon/lib/version.Version=v1.2.3".
var Version = "dev"

// Info returns the version plus the VCS revision when available.
func Info() string {
	revision := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
				revision = setting.Value[:8]
			}
		}
	}
	if revision == "" {
		return Version
	}
	return Version + " (" + revision + ")"
}

// Print writes the binary name and version to stdout.
func Print(binary string) {
	fmt.Printf("%s %s\n", binary, Info())
}
