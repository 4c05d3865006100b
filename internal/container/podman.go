// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// PodmanEngine implements Engine with the podman client.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a podman engine. Bind mounts without options get
// the shared SELinux label.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")
	allOpts := append([]BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithVolumeFormatter(addSELinuxLabel),
	}, opts...)
	return &PodmanEngine{BaseCLIEngine: NewBaseCLIEngine(path, allOpts...)}
}

// Available checks that podman answers a version query.
func (e *PodmanEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	return e.RunCommandStatus(context.Background(), "version", "--format", "{{.Version}}") == nil
}

// Version returns the podman client version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ImageExists checks if an image is present in local storage.
func (e *PodmanEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	cmd := e.CreateCommand(ctx, "image", "exists", image)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("failed to check image %s: %w", image, err)
	}
	return true, nil
}

// addSELinuxLabel appends ":z" to "host:container" bind mounts.
func addSELinuxLabel(volume string) string {
	if strings.Count(volume, ":") == 1 {
		return volume + ":z"
	}
	return volume
}
