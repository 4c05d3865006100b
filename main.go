// SPDX-License-Identifier: MPL-2.0

// Command devtool is the development helper of the task-runner repository.
package main

import "github.com/konflux-ci/task-runner/cmd/devtool"

func main() {
	cmd.Execute()
}
