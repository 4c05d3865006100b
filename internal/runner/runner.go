// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// ErrExec is the sentinel error wrapped by ExecError.
var ErrExec = errors.New("command failed")

type (
	// Runner executes a program in a working directory and returns its stdout.
	Runner interface {
		Output(ctx context.Context, dir, name string, args ...string) (string, error)
	}

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures an ExecRunner.
	Option func(*ExecRunner)

	// ExecRunner is the production Runner backed by os/exec.
	ExecRunner struct {
		execCommand ExecCommandFunc
		logger      *log.Logger
	}

	// ExecError describes a program that could not be started or exited non-zero.
	ExecError struct {
		Dir      string
		Argv     []string
		ExitCode int
		Stdout   string
		Stderr   string
		Err      error
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *ExecRunner) {
		r.execCommand = fn
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *log.Logger) Option {
	return func(r *ExecRunner) {
		r.logger = logger
	}
}

// New creates an ExecRunner.
func New(opts ...Option) *ExecRunner {
	r := &ExecRunner{
		execCommand: exec.CommandContext,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Output runs name with args in dir and returns its standard output.
func (r *ExecRunner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	argv := append([]string{name}, args...)
	r.logger.Debug("exec", "dir", dir, "cmd", Quote(argv))

	cmd := r.execCommand(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		execErr := &ExecError{
			Dir:      dir,
			Argv:     argv,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		if s := strings.TrimRight(execErr.Stderr, "\n"); s != "" {
			r.logger.Debug("stderr>\n"+s, "cmd", name)
		}
		return execErr.Stdout, execErr
	}

	return stdout.String(), nil
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %v", Quote(e.Argv), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns ErrExec and the underlying exec error.
func (e *ExecError) Unwrap() []error { return []error{ErrExec, e.Err} }

// Quote renders argv the way a POSIX shell would need it typed.
func Quote(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", arg)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

// ExitCode extracts the exit code from an *ExecError in err's chain.
// It returns -1 when err carries no exit status.
func ExitCode(err error) int {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.ExitCode
	}
	return -1
}
