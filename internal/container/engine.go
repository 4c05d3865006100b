// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// EngineTypePodman selects the podman client.
	EngineTypePodman EngineType = "podman"
	// EngineTypeDocker selects the docker client.
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
var ErrEngineNotAvailable = errors.New("container engine not available")

type (
	// EngineType identifies the container engine type.
	EngineType string

	// Engine defines the container operations used by the image tests.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available checks if the engine is usable on this system.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)
		// Build builds an image from a Containerfile.
		Build(ctx context.Context, opts BuildOptions) error
		// Run runs a command in a fresh container.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
		// ImageExists checks if an image is present locally.
		ImageExists(ctx context.Context, image string) (bool, error)
		// RemoveImage removes an image.
		RemoveImage(ctx context.Context, image string, force bool) error
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Containerfile is the path to the Containerfile, relative to ContextDir.
		Containerfile string
		// Tag is the image tag.
		Tag string
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
		// NoCache disables the build cache.
		NoCache bool
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		Image   string
		Command []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		Env     map[string]string
		// Volumes are --volume arguments. An anonymous volume is a single
		// container path; bind mounts are "host:container[:options]".
		Volumes []string
		// Devices are --device arguments, e.g. /dev/fuse.
		Devices []string
		// User is the --user argument, a name or "uid[:gid]".
		User       string
		Privileged bool
		CapAdd     []string
		CapDrop    []string
		// Remove automatically removes the container after exit.
		Remove bool
		Name   string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// RunResult contains the result of running a container.
	RunResult struct {
		// ExitCode is the exit code of the container command.
		ExitCode int
		// Error is set when the engine could not be started at all.
		Error error
	}

	// EngineNotAvailableError is returned when no usable engine is found.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// NewEngine returns the preferred engine, falling back to the other one.
func NewEngine(preferred EngineType) (Engine, error) {
	var first, second Engine
	switch preferred {
	case EngineTypePodman:
		first, second = NewPodmanEngine(), NewDockerEngine()
	case EngineTypeDocker:
		first, second = NewDockerEngine(), NewPodmanEngine()
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferred)
	}

	if first.Available() {
		return first, nil
	}
	if second.Available() {
		return second, nil
	}
	return nil, &EngineNotAvailableError{
		Engine: string(preferred),
		Reason: fmt.Sprintf("%s is not installed or not accessible, and %s fallback is also not available",
			first.Name(), second.Name()),
	}
}

// AutoDetectEngine tries podman first, then docker.
func AutoDetectEngine() (Engine, error) {
	eng, err := NewEngine(EngineTypePodman)
	if err != nil {
		return nil, &EngineNotAvailableError{
			Engine: "any",
			Reason: "no container engine (podman or docker) is available on this system",
		}
	}
	return eng, nil
}
