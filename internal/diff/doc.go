// SPDX-License-Identifier: MPL-2.0

// Package diff compares the persisted software inventory between two git
// refs, or between a ref and the live working tree, and reports every
// package whose version changed.
package diff
