// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the devtool CLI commands.
package cmd
