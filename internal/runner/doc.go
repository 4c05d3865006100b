// SPDX-License-Identifier: MPL-2.0

// Package runner runs external programs (git, go, podman) on behalf of the
// inventory and diff code.
//
// All subprocess access goes through the Runner interface so that callers can
// be tested with a scripted fake instead of real binaries. Non-zero exits are
// reported as *ExecError values carrying the captured stdout and stderr.
package runner
