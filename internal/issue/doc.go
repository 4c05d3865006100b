// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown
// remediation guides for the failures a devtool user can fix themselves:
// broken inventory sources, missing upstream remotes, bad configuration.
package issue
