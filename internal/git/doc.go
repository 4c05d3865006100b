// SPDX-License-Identifier: MPL-2.0

// Package git is a narrow client for the handful of git plumbing commands the
// devtool needs: reading files at a ref, resolving refs, listing remotes and
// tags, and fetching single tags. Every call goes through a runner.Runner so
// the client can be driven by a scripted fake in tests.
package git
