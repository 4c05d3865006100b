// SPDX-License-Identifier: MPL-2.0

// Package config loads the devtool configuration using Viper with CUE as the
// file format.
//
// The first existing file wins: the path given with --config, devtool.cue at
// the repository root, then config.cue in the user configuration directory
// ($XDG_CONFIG_HOME/devtool on Linux). Without any file the built-in defaults
// describe the task-runner repository layout. Files are validated against the
// embedded #Config schema (config_schema.cue); DEVTOOL_* environment
// variables override file values.
package config
