// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package insights

// Version is set via ldflags at build time
var Version string

// Build is set via ldflags at build time
var Build string

// GetVersion returns the version of the tool
// valid versions are semver or "unstable"
func GetVersion() string {
	if Version == "" {
		return "unstable"
	}
	return Version
}

// GetBuild returns the git sha of the build
func GetBuild() string {
	if Build == "" {
		return "development"
	}
	return Build
}
