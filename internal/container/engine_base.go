// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/konflux-ci/task-runner/internal/issue"
)

type (
	// ExecCommandFunc creates the exec.Cmd for an engine invocation.
	// Tests inject the TestHelperProcess pattern through it.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// VolumeFormatFunc rewrites a --volume argument before it is passed on.
	VolumeFormatFunc func(volume string) string

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine implements the argument building and process handling
	// shared by the podman and docker clients.
	BaseCLIEngine struct {
		name            string
		binaryPath      string
		execCommand     ExecCommandFunc
		volumeFormatter VolumeFormatFunc
	}
)

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) { e.name = name }
}

// WithExecCommand replaces exec.CommandContext.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) { e.execCommand = fn }
}

// WithVolumeFormatter sets the --volume rewrite.
func WithVolumeFormatter(fn VolumeFormatFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) { e.volumeFormatter = fn }
}

// WithBinaryPath overrides the resolved client binary.
func WithBinaryPath(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) { e.binaryPath = path }
}

// NewBaseCLIEngine creates a BaseCLIEngine for the client at binaryPath.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:      binaryPath,
		execCommand:     exec.CommandContext,
		volumeFormatter: func(v string) string { return v },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *BaseCLIEngine) Name() string { return e.name }

// BinaryPath returns the client binary, empty when it was not found.
func (e *BaseCLIEngine) BinaryPath() string { return e.binaryPath }

// BuildArgs returns the arguments of the build invocation.
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Containerfile != "" {
		path := opts.Containerfile
		if !filepath.IsAbs(path) && opts.ContextDir != "" {
			path = filepath.Join(opts.ContextDir, path)
		}
		args = append(args, "--file", path)
	}
	if opts.Tag != "" {
		args = append(args, "--tag", opts.Tag)
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	for _, k := range slices.Sorted(maps.Keys(opts.BuildArgs)) {
		args = append(args, "--build-arg", k+"="+opts.BuildArgs[k])
	}

	return append(args, opts.ContextDir)
}

// RunArgs returns the arguments of the run invocation.
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Remove {
		args = append(args, "--rm")
	}
	if opts.Name != "" {
		args = append(args, "--name="+opts.Name)
	}
	if opts.Stdin != nil {
		args = append(args, "--interactive")
	}
	for _, k := range slices.Sorted(maps.Keys(opts.Env)) {
		args = append(args, "--env="+k+"="+opts.Env[k])
	}
	for _, v := range opts.Volumes {
		args = append(args, "--volume="+e.volumeFormatter(v))
	}
	for _, d := range opts.Devices {
		args = append(args, "--device="+d)
	}
	if opts.WorkDir != "" {
		args = append(args, "--workdir="+opts.WorkDir)
	}
	if opts.User != "" {
		args = append(args, "--user="+opts.User)
	}
	if opts.Privileged {
		args = append(args, "--privileged")
	}
	for _, c := range opts.CapAdd {
		args = append(args, "--cap-add="+c)
	}
	for _, c := range opts.CapDrop {
		args = append(args, "--cap-drop="+c)
	}

	args = append(args, opts.Image)
	return append(args, opts.Command...)
}

// CreateCommand creates the exec.Cmd for a client invocation.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// RunCommandStatus runs the client and reports only success or failure.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	if err := e.CreateCommand(ctx, args...).Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput runs the client and returns its stdout.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return out.String(), nil
}

// Build builds an image, streaming the client's output to opts.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	cmd := e.CreateCommand(ctx, e.BuildArgs(opts)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return buildContainerError(e.name, opts, err)
	}
	return nil
}

// Run runs a container. A non-zero exit of the container command is
// reported through RunResult.ExitCode, not as an error.
func (e *BaseCLIEngine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Image == "" {
		return nil, runContainerError(e.name, opts, errors.New("no image given"))
	}

	cmd := e.CreateCommand(ctx, e.RunArgs(opts)...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	result := &RunResult{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = runContainerError(e.name, opts, err)
		}
	}
	return result, nil
}

// RemoveImage removes an image.
func (e *BaseCLIEngine) RemoveImage(ctx context.Context, image string, force bool) error {
	args := []string{"rmi"}
	if force {
		args = append(args, "--force")
	}
	return e.RunCommandStatus(ctx, append(args, image)...)
}

func buildContainerError(engine string, opts BuildOptions, cause error) error {
	ctx := issue.NewErrorContext().WithOperation("build container image")
	switch {
	case opts.Containerfile != "":
		ctx.WithResource(opts.Containerfile)
	case opts.ContextDir != "":
		ctx.WithResource(opts.ContextDir)
	case opts.Tag != "":
		ctx.WithResource(opts.Tag)
	}
	ctx.WithSuggestion("Check the Containerfile for errors")
	ctx.WithSuggestion("Ensure base images are available (try: " + engine + " pull <base-image>)")
	return ctx.Wrap(cause).BuildError()
}

func runContainerError(engine string, opts RunOptions, cause error) error {
	return issue.NewErrorContext().
		WithOperation("run container").
		WithResource(opts.Image).
		WithSuggestion("Verify the image exists (try: " + engine + " images)").
		WithSuggestion("Check that bind-mounted host paths exist").
		Wrap(cause).
		BuildError()
}
