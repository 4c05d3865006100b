// SPDX-License-Identifier: MPL-2.0

// Package software models the software installed into the task-runner image.
//
// A Package is one of a closed set of variants (Go tool, Go submodule, RPM,
// pip package, local script). Every variant exposes its name and version and
// can be flattened to a plain key/value map for machine-readable output.
// Inventories are immutable snapshots: nothing in this package mutates a
// Package after construction.
package software
