// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoUsesInjectedValues(t *testing.T) {
	defer func(commit, dirty, built string) {
		GitCommit, GitDirty, BuildTime = commit, dirty, built
	}(GitCommit, GitDirty, BuildTime)

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-10-01T12:00:00Z"
	want := Version + " (abc1234-dirty, 2026-10-01T12:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	want = Version + " (abc1234, 2026-10-01T12:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Version+" (") {
		t.Errorf("Full() = %q, want it to start with the version", full)
	}
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, missing platform", full)
	}
}

func TestShort(t *testing.T) {
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}
