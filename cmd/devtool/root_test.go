// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"
)

// Not parallel: mutates the ldflags variables.
func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	})

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "v1.2.3", "abc123", "2025-01-01"
	if got, want := getVersionString(), "v1.2.3 (commit: abc123, built: 2025-01-01)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{}))
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	got := strings.Join(names, ",")
	for _, want := range []string{"config", "diff", "ls", "renovate"} {
		if !strings.Contains(got, want) {
			t.Errorf("subcommands %q missing %q", got, want)
		}
	}
	for _, flag := range []string{"root", "config", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}
