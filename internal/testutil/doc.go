// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the devtool test suites:
// fixture-tree builders that fail the test on I/O errors, a scripted
// FakeRunner standing in for git/go subprocesses, and a semaphore bounding
// concurrent container runs.
package testutil
