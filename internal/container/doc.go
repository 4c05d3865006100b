// SPDX-License-Identifier: MPL-2.0

// Package container drives the podman and docker command-line clients for the
// image test suite: building the task-runner image and running one-shot
// commands in it with volumes, devices, users and capability sets.
package container
