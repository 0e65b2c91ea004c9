// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// VersionPath is the endpoint returning the NSP release version banner
const VersionPath = "/internal/shared-app-banner-utils/rest/api/v1/appBannerUtils/release-version"

// versionRegex extracts the major.minor release number from a version string
// such as "NSP Version 23.11.0-rel".
var versionRegex = regexp.MustCompile(`(\d+)\.(\d+)`)

// Version describes an NSP release
type Version struct {
	// Release is the full version string as reported by the controller
	Release string

	// Major and Minor are the parsed release numbers
	Major int
	Minor int
}

// String returns the major.minor form of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether the version is the given minimum version or newer.
//
// The minimum is given as "major.minor", e.g. "23.11". Malformed minimum
// strings return false.
func (v Version) AtLeast(minimum string) bool {
	min, err := ParseVersion(minimum)
	if err != nil {
		return false
	}
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	return v.Minor >= min.Minor
}

// ParseVersion extracts the major.minor version from a release string.
//
// Accepts full banner strings ("NSP Version 23.11.0-rel") as well as bare
// version numbers ("23.11").
func ParseVersion(release string) (Version, error) {
	match := versionRegex.FindStringSubmatch(release)
	if match == nil {
		return Version{}, fmt.Errorf("no version number in %q", release)
	}
	major, err := strconv.Atoi(match[1])
	if err != nil {
		return Version{}, fmt.Errorf("parsing major version: %w", err)
	}
	minor, err := strconv.Atoi(match[2])
	if err != nil {
		return Version{}, fmt.Errorf("parsing minor version: %w", err)
	}
	return Version{Release: release, Major: major, Minor: minor}, nil
}

// Version queries the NSP release version from the controller.
//
// Example:
//
//	version, err := client.Version(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !version.AtLeast("23.11") {
//	    log.Fatalf("NSP %s is too old", version)
//	}
func (c *Client) Version(ctx context.Context) (Version, error) {
	res, err := c.Get(ctx, VersionPath)
	if err != nil {
		return Version{}, err
	}
	release := res.Get("response.data.nspOSVersion").String()
	if release == "" {
		return Version{}, fmt.Errorf("version response without nspOSVersion")
	}
	version, err := ParseVersion(release)
	if err != nil {
		return Version{}, err
	}
	c.logger.Debug(ctx, "NSP version detected",
		"release", version.Release,
		"version", version.String())
	return version, nil
}
