// SPDX-License-Identifier: MPL-2.0

// Package inventory collects the software installed into the task-runner
// image from the sources that declare it: Go tool modules, Go submodule
// checkouts, the RPM lockfile, pip requirement files and the local-tools
// scripts.
//
// Every collection step is all-or-nothing. The first inconsistency aborts the
// whole listing with a typed error; a partial inventory is never returned.
package inventory
