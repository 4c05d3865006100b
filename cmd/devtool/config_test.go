// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/konflux-ci/task-runner/internal/testutil"
)

func TestConfigShow(t *testing.T) {
	t.Parallel()

	root, fake := writeRepo(t)
	testutil.MustWriteFile(t, root, "devtool.cue", "inventory: column_width: 16\nlog_level: \"info\"\n")

	res := runCLI(t, fake, "--root", root, "config", "show")
	if res.err != nil {
		t.Fatalf("config show error = %v\nstderr: %s", res.err, res.stderr)
	}
	for _, want := range []string{
		"Current Configuration",
		filepath.Join(root, "devtool.cue"),
		"column_width: 16",
		"file: Installed-Software.md",
		"log_level: info",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("config show output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestConfigShow_Defaults(t *testing.T) {
	t.Parallel()

	root, fake := writeRepo(t)
	res := runCLI(t, fake, "--root", root, "config", "show")
	if res.err != nil {
		t.Fatalf("config show error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "(using defaults)") {
		t.Errorf("config show output =\n%s", res.stdout)
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		root, fake := writeRepo(t)
		res := runCLI(t, fake, "--root", root, "config", "path")
		if res.err != nil {
			t.Fatalf("config path error = %v", res.err)
		}
		if got := strings.TrimSpace(res.stdout); got != "(using defaults)" {
			t.Errorf("config path = %q, want (using defaults)", got)
		}
	})

	t.Run("repository file", func(t *testing.T) {
		t.Parallel()

		root, fake := writeRepo(t)
		path := testutil.MustWriteFile(t, root, "devtool.cue", "log_level: \"debug\"\n")
		res := runCLI(t, fake, "--root", root, "config", "path")
		if res.err != nil {
			t.Fatalf("config path error = %v", res.err)
		}
		if got := strings.TrimSpace(res.stdout); got != path {
			t.Errorf("config path = %q, want %q", got, path)
		}
	})

	t.Run("explicit file wins", func(t *testing.T) {
		t.Parallel()

		root, fake := writeRepo(t)
		testutil.MustWriteFile(t, root, "devtool.cue", "log_level: \"debug\"\n")
		explicit := testutil.MustWriteFile(t, t.TempDir(), "other.cue", "log_level: \"error\"\n")
		res := runCLI(t, fake, "--root", root, "--config", explicit, "config", "path")
		if res.err != nil {
			t.Fatalf("config path error = %v", res.err)
		}
		if got := strings.TrimSpace(res.stdout); got != explicit {
			t.Errorf("config path = %q, want %q", got, explicit)
		}
	})

	t.Run("explicit file missing", func(t *testing.T) {
		t.Parallel()

		root, fake := writeRepo(t)
		res := runCLI(t, fake, "--root", root, "--config", filepath.Join(root, "nope.cue"), "config", "path")
		if res.exitCode() != 1 {
			t.Fatalf("exit code = %d, want 1", res.exitCode())
		}
		if !strings.Contains(res.stderr, "nope.cue") {
			t.Errorf("stderr does not name the file:\n%s", res.stderr)
		}
	})
}

func TestConfigDump(t *testing.T) {
	t.Parallel()

	root, fake := writeRepo(t)
	testutil.MustWriteFile(t, root, "devtool.cue", "inventory: column_width: 42\n")

	res := runCLI(t, fake, "--root", root, "config", "dump")
	if res.err != nil {
		t.Fatalf("config dump error = %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "column_width: 42") {
		t.Errorf("dump does not carry the file value:\n%s", res.stdout)
	}

	// The dump must load back as a configuration file.
	dumped := testutil.MustWriteFile(t, t.TempDir(), "dumped.cue", res.stdout)
	res = runCLI(t, fake, "--root", root, "--config", dumped, "config", "show")
	if res.err != nil {
		t.Fatalf("loading the dump failed: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "column_width: 42") {
		t.Errorf("show after dump =\n%s", res.stdout)
	}
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	root, fake := writeRepo(t)
	path := filepath.Join(t.TempDir(), "nested", "config.cue")

	res := runCLI(t, fake, "--root", root, "config", "init", path)
	if res.err != nil {
		t.Fatalf("config init error = %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "Created default configuration at "+path) {
		t.Errorf("stdout = %q", res.stdout)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	res = runCLI(t, fake, "--root", root, "config", "init", path)
	if res.exitCode() != 1 {
		t.Errorf("second init exit code = %d, want 1", res.exitCode())
	}

	res = runCLI(t, fake, "--root", root, "config", "init", "--force", path)
	if res.err != nil {
		t.Errorf("init --force error = %v", res.err)
	}
}

func TestConfigInvalidFile(t *testing.T) {
	t.Parallel()

	root, fake := writeRepo(t)
	testutil.MustWriteFile(t, root, "devtool.cue", "inventory: column_width: 0\n")

	res := runCLI(t, fake, "--root", root, "ls")
	if res.exitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", res.exitCode())
	}
	if !strings.Contains(res.stderr, "inventory.column_width") {
		t.Errorf("stderr does not name the field:\n%s", res.stderr)
	}
}
