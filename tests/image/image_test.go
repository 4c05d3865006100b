// SPDX-License-Identifier: MPL-2.0

// Package image tests the built task-runner image: the buildah storage
// configuration and the installed software versions.
//
// The suite needs podman or docker; container.engine in the repository
// configuration picks the preferred one. It is skipped in -short mode and
// when no engine is reachable. TEST_IMAGE, or container.test_image, selects
// an existing image instead of building localhost/task-runner:test from the
// repository root.
package image

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"github.com/konflux-ci/task-runner/internal/config"
	"github.com/konflux-ci/task-runner/internal/container"
	"github.com/konflux-ci/task-runner/internal/testutil"
)

const (
	defaultTestImage = "localhost/task-runner:test"

	// containerTestTimeout bounds one container run, including image pulls
	// done by buildah inside the container.
	containerTestTimeout = 5 * time.Minute

	runAttempts    = 3
	runBaseBackoff = 2 * time.Second
)

type (
	// taskRunner runs commands in the image under test.
	taskRunner struct {
		engine container.Engine
		image  string
	}

	// runOptions are the container settings of one run. Bind mounts of the
	// form host:container get the SELinux relabel option from the engine.
	runOptions struct {
		Volumes    []string
		Devices    []string
		WorkDir    string
		User       string
		Privileged bool
		CapAdd     []string
		CapDrop    []string
	}

	runResult struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}
)

var (
	setupOnce  sync.Once
	sharedTR   *taskRunner
	setupError error
	skipReason string
)

// checkTestcontainersAvailable reports whether testcontainers can reach a
// provider for the engine. Provider detection panics on some hosts.
func checkTestcontainersAvailable(engineName string) (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	providerType := testcontainers.ProviderDocker
	if engineName == string(container.EngineTypePodman) {
		providerType = testcontainers.ProviderPodman
	}
	provider, err := providerType.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// requireTaskRunner returns the image under test, building it on first use.
func requireTaskRunner(t *testing.T) *taskRunner {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping image tests in short mode")
	}

	setupOnce.Do(func() {
		cfg, err := loadConfig()
		if err != nil {
			setupError = err
			return
		}
		engine, err := container.NewEngine(container.EngineType(cfg.Container.Engine))
		if err != nil {
			skipReason = fmt.Sprintf("no container engine available: %v", err)
			return
		}
		if !checkTestcontainersAvailable(engine.Name()) {
			skipReason = "testcontainers provider not available for " + engine.Name()
			return
		}

		image := os.Getenv("TEST_IMAGE")
		if image == "" {
			image = cfg.Container.TestImage
		}
		if image == "" && !hasContainerfile() {
			skipReason = "no test image configured and the repository has no Containerfile"
			return
		}
		sharedTR, setupError = newTaskRunner(engine, image)
	})

	if skipReason != "" {
		t.Skip(skipReason)
	}
	if setupError != nil {
		t.Fatalf("prepare test image: %v", setupError)
	}
	return sharedTR
}

// loadConfig reads the repository configuration for the container settings.
func loadConfig() (*config.Config, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}
	return config.NewProvider().Load(context.Background(), config.LoadOptions{RootDir: root})
}

// newTaskRunner uses image when set, otherwise builds defaultTestImage.
func newTaskRunner(engine container.Engine, image string) (*taskRunner, error) {
	if image != "" {
		return &taskRunner{engine: engine, image: image}, nil
	}

	root, err := repoRoot()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*containerTestTimeout)
	defer cancel()

	var stderr bytes.Buffer
	err = container.RetryWithBackoff(ctx, runAttempts, runBaseBackoff, func(int) (bool, error) {
		stderr.Reset()
		err := engine.Build(ctx, container.BuildOptions{
			ContextDir: root,
			Tag:        defaultTestImage,
			Stdout:     os.Stderr,
			Stderr:     &stderr,
		})
		return container.IsTransientError(err), err
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w\n%s", defaultTestImage, err, stderr.String())
	}
	return &taskRunner{engine: engine, image: defaultTestImage}, nil
}

// run runs cmd in a fresh container and fails the test on a non-zero exit.
func (tr *taskRunner) run(t *testing.T, cmd []string, opts runOptions) runResult {
	t.Helper()

	res := tr.tryRun(t, cmd, opts)
	if res.ExitCode != 0 {
		t.Fatalf("%s exited with %d\nstdout:\n%s\nstderr:\n%s",
			strings.Join(cmd, " "), res.ExitCode, res.Stdout, res.Stderr)
	}
	return res
}

// tryRun runs cmd and returns its result whatever the exit code. Engine
// failures (exit 125) are retried.
func (tr *taskRunner) tryRun(t *testing.T, cmd []string, opts runOptions) runResult {
	t.Helper()

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctx, cancel := context.WithTimeout(t.Context(), containerTestTimeout)
	defer cancel()

	var res runResult
	err := container.RetryWithBackoff(ctx, runAttempts, runBaseBackoff, func(attempt int) (bool, error) {
		var stdout, stderr bytes.Buffer
		result, err := tr.engine.Run(ctx, container.RunOptions{
			Image:      tr.image,
			Command:    cmd,
			WorkDir:    opts.WorkDir,
			Volumes:    opts.Volumes,
			Devices:    opts.Devices,
			User:       opts.User,
			Privileged: opts.Privileged,
			CapAdd:     opts.CapAdd,
			CapDrop:    opts.CapDrop,
			Remove:     true,
			Stdout:     &stdout,
			Stderr:     &stderr,
		})
		if err != nil {
			return false, err
		}
		if result.Error != nil {
			return false, result.Error
		}

		res = runResult{ExitCode: result.ExitCode, Stdout: stdout.String(), Stderr: stderr.String()}
		if res.ExitCode == 125 {
			t.Logf("attempt %d: engine failure, retrying\n%s", attempt+1, res.Stderr)
			return true, fmt.Errorf("container engine exited with 125: %s", strings.TrimSpace(res.Stderr))
		}
		return false, nil
	})
	if err != nil && res.ExitCode != 125 {
		t.Fatalf("run %s: %v", strings.Join(cmd, " "), err)
	}
	return res
}

func hasContainerfile() bool {
	root, err := repoRoot()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(root, "Containerfile"))
	return err == nil
}

// repoRoot walks up from the working directory to the directory holding go.mod.
func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", dir)
		}
		dir = parent
	}
}
