// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "fmt"

const notAvailable = "N/A"

// AppBuildInfo is the build metadata injected with -ldflags "-X main.buildVersion=..."
// and reported by GET /api/version/ and the client's version command.
type AppBuildInfo struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// NewAppBuildInfo replaces empty values with "N/A".
func NewAppBuildInfo(version, date, commit string) AppBuildInfo {
	return AppBuildInfo{
		Version: orNotAvailable(version),
		Date:    orNotAvailable(date),
		Commit:  orNotAvailable(commit),
	}
}

func (a AppBuildInfo) String() string {
	return fmt.Sprintf("version %s (commit %s, built %s)", a.Version, a.Commit, a.Date)
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
