// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/konflux-ci/task-runner/internal/runner"
)

type (
	// FakeRunner is a scripted runner.Runner. Expectations are matched in
	// registration order against the working directory and argv; a call that
	// matches nothing fails with exit code 127.
	FakeRunner struct {
		mu        sync.Mutex
		responses []*FakeResponse
		// Calls records each invocation in order.
		Calls []Call
	}

	// Call is a recorded invocation.
	Call struct {
		Dir  string
		Argv []string
	}

	// FakeResponse is the scripted outcome of one expectation.
	FakeResponse struct {
		dir      string
		argv     []string
		stdout   string
		stderr   string
		exitCode int
		times    int
	}
)

// NewFakeRunner creates a FakeRunner with no expectations.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On registers an expectation for argv run in dir. An empty dir matches any directory.
// The expectation succeeds with empty output until configured otherwise.
func (f *FakeRunner) On(dir string, argv ...string) *FakeResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &FakeResponse{dir: dir, argv: argv, times: -1}
	f.responses = append(f.responses, r)
	return r
}

// Return makes the expectation succeed with stdout.
func (r *FakeResponse) Return(stdout string) *FakeResponse {
	r.stdout = stdout
	return r
}

// Fail makes the expectation exit with code and stderr.
func (r *FakeResponse) Fail(code int, stderr string) *FakeResponse {
	r.exitCode = code
	r.stderr = stderr
	return r
}

// Once limits the expectation to a single match.
func (r *FakeResponse) Once() *FakeResponse {
	r.times = 1
	return r
}

// Output implements runner.Runner.
func (f *FakeRunner) Output(_ context.Context, dir, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	argv := append([]string{name}, args...)
	f.Calls = append(f.Calls, Call{Dir: dir, Argv: argv})

	for _, r := range f.responses {
		if r.times == 0 || !slices.Equal(r.argv, argv) || (r.dir != "" && r.dir != dir) {
			continue
		}
		if r.times > 0 {
			r.times--
		}
		if r.exitCode != 0 {
			return r.stdout, &runner.ExecError{
				Dir:      dir,
				Argv:     argv,
				ExitCode: r.exitCode,
				Stdout:   r.stdout,
				Stderr:   r.stderr,
				Err:      errors.New("exit status " + strconv.Itoa(r.exitCode)),
			}
		}
		return r.stdout, nil
	}

	return "", &runner.ExecError{
		Dir:      dir,
		Argv:     argv,
		ExitCode: 127,
		Stderr:   "unexpected command",
		Err:      errors.New("no scripted response"),
	}
}

// Called reports whether argv was invoked in any directory.
func (f *FakeRunner) Called(argv ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if slices.Equal(c.Argv, argv) {
			return true
		}
	}
	return false
}
