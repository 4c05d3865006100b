// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/konflux-ci/task-runner/internal/config"
	"github.com/konflux-ci/task-runner/internal/testutil"
)

const goModCosign = `{
	"Module": {"Path": "example.com/tools/cosign"},
	"Require": [{"Path": "github.com/sigstore/cosign/v2", "Version": "v2.4.1"}],
	"Tool": [{"Path": "github.com/sigstore/cosign/v2/cmd/cosign"}]
}`

// isolatedConfig loads configuration without looking at the user config directory.
type isolatedConfig struct {
	dir string
}

func (p isolatedConfig) Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error) {
	opts.ConfigDirPath = p.dir
	return config.NewProvider().Load(ctx, opts)
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (r cliResult) exitCode() int {
	if r.err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(r.err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func runCLI(t *testing.T, fake *testutil.FakeRunner, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:     isolatedConfig{dir: t.TempDir()},
		Runner:     fake,
		Stdout:     &stdout,
		Stderr:     &stderr,
		GuideStyle: "notty",
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// writeRepo lays out a repository with one Go tool, one RPM, one pip
// package and one local tool.
func writeRepo(t *testing.T) (string, *testutil.FakeRunner) {
	t.Helper()

	root := t.TempDir()
	fake := testutil.NewFakeRunner()

	testutil.MustMkdirAll(t, filepath.Join(root, "deps/go-tools/cosign"))
	fake.On(filepath.Join(root, "deps/go-tools/cosign"), "go", "mod", "edit", "-json").Return(goModCosign)

	testutil.MustWriteFile(t, root, "deps/rpm/rpms.in.yaml", "packages: [jq]\narches: [x86_64]\n")
	testutil.MustWriteFile(t, root, "deps/rpm/rpms.lock.yaml", `
arches:
  - arch: x86_64
    packages:
      - name: jq
        evr: 1.7.1-8.el10
`)
	testutil.MustWriteFile(t, root, "deps/pip/requirements.in", "awscli\n")
	testutil.MustWriteFile(t, root, "deps/pip/requirements.txt", "awscli==1.36.0\n")
	testutil.MustWriteFile(t, root, "local-tools/retry/retry.sh", "#!/bin/bash\nVERSION=1.0.0\n")

	return root, fake
}
