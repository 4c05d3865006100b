// SPDX-License-Identifier: MPL-2.0

package image

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

const (
	baseImage = "registry.access.redhat.com/ubi10/ubi-micro@sha256:2946fa1b951addbcd548ef59193dc0af9b3e9fedb0287b4ddb6e697b06581622"

	rootlessStorage = "/home/taskuser/.local/share/containers"
	rootStorage     = "/var/lib/containers"

	multipleLowersOK = "overlay: test mount with multiple lowers succeeded"
	noKernelWhiteout = "Unable to create kernel-style whiteout: operation not permitted"
)

// buildahInfo is the subset of `buildah info` output the tests inspect.
type buildahInfo struct {
	Store struct {
		GraphDriverName string            `json:"GraphDriverName"`
		GraphStatus     map[string]string `json:"GraphStatus"`
	} `json:"store"`
}

var (
	contextDirOnce sync.Once
	contextDirPath string
	contextDirErr  error
)

// buildContext returns a build context whose Containerfile builds FROM a
// local OCI copy of the base image, so the builds under test never pull.
// The directory is world-accessible because the image runs as a non-root user.
func buildContext(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("skopeo"); err != nil {
		t.Skip("skopeo not found in PATH")
	}

	contextDirOnce.Do(func() {
		contextDirPath, contextDirErr = prepareBuildContext()
	})
	if contextDirErr != nil {
		t.Fatalf("prepare build context: %v", contextDirErr)
	}
	return contextDirPath
}

func prepareBuildContext() (string, error) {
	dir, err := os.MkdirTemp("", "buildcontext-")
	if err != nil {
		return "", err
	}
	if err := os.Chmod(dir, 0o777); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), containerTestTimeout)
	defer cancel()

	// --override-os lets macOS hosts copy the linux image.
	cmd := exec.CommandContext(ctx, "skopeo", "copy",
		"--override-os=linux",
		"--remove-signatures",
		"docker://"+baseImage,
		"oci:"+filepath.Join(dir, "base_image"),
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}

	containerfile := "FROM oci:./base_image\nRUN touch /tmp/foo.txt\n"
	if err := os.WriteFile(filepath.Join(dir, "Containerfile"), []byte(containerfile), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

func parseBuildahInfo(t *testing.T, stdout string) buildahInfo {
	t.Helper()

	var info buildahInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("decode buildah info: %v\n%s", err, stdout)
	}
	return info
}

func TestBuildahUsesNativeOverlay(t *testing.T) {
	t.Parallel()
	tr := requireTaskRunner(t)

	// An anonymous volume over the storage directory makes native overlay usable.
	res := tr.run(t, []string{"buildah", "info", "--log-level=debug"}, runOptions{
		Volumes: []string{rootlessStorage},
	})
	info := parseBuildahInfo(t, res.Stdout)

	if got := info.Store.GraphDriverName; got != "overlay" {
		t.Errorf("GraphDriverName = %q, want overlay", got)
	}
	if got := info.Store.GraphStatus["Native Overlay Diff"]; got != "true" {
		t.Errorf("Native Overlay Diff = %q, want true", got)
	}
	if !strings.Contains(res.Stderr, multipleLowersOK) {
		t.Errorf("stderr does not report a successful multi-lower mount:\n%s", res.Stderr)
	}
	if strings.Contains(res.Stderr, noKernelWhiteout) {
		t.Errorf("stderr reports missing kernel whiteouts:\n%s", res.Stderr)
	}
}

func TestBuildahFallsBackToFuseOverlayfs(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "darwin" {
		t.Skip("macOS hosts report native overlay even without the storage volume")
	}
	tr := requireTaskRunner(t)

	for _, user := range []string{"taskuser", "root"} {
		t.Run(user, func(t *testing.T) {
			t.Parallel()

			// Without a volume over the storage directory native overlay is not usable.
			res := tr.run(t, []string{"buildah", "info", "--log-level=debug"}, runOptions{
				Devices: []string{"/dev/fuse"},
				User:    user,
			})
			info := parseBuildahInfo(t, res.Stdout)

			if got := info.Store.GraphDriverName; got != "overlay" {
				t.Errorf("GraphDriverName = %q, want overlay", got)
			}
			if got := info.Store.GraphStatus["Native Overlay Diff"]; got != "false" {
				t.Errorf("Native Overlay Diff = %q, want false", got)
			}
			if !strings.Contains(res.Stderr, noKernelWhiteout) {
				t.Errorf("stderr does not report missing kernel whiteouts:\n%s", res.Stderr)
			}
		})
	}
}

func TestBuildahBuild(t *testing.T) {
	t.Parallel()
	tr := requireTaskRunner(t)
	contextDir := buildContext(t)

	tests := []struct {
		name          string
		user          string
		storage       string
		nativeOverlay bool
		capAdd        []string
		args          []string
	}{
		{
			name:          "native overlay",
			storage:       rootlessStorage,
			nativeOverlay: true,
			capAdd:        []string{"SETUID", "SETGID", "SYS_CHROOT"},
		},
		{
			name:   "fuse-overlayfs",
			capAdd: []string{"SETUID", "SETGID", "SYS_CHROOT"},
		},
		{
			name:          "native overlay as root",
			user:          "0",
			storage:       rootStorage,
			nativeOverlay: true,
			capAdd:        []string{"SETUID", "SETGID", "SYS_CHROOT", "SETFCAP"},
			args:          []string{"--log-level=debug"},
		},
		{
			name:   "fuse-overlayfs as root",
			user:   "0",
			capAdd: []string{"SETUID", "SETGID", "SYS_CHROOT", "SETFCAP"},
			args:   []string{"--log-level=debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := runOptions{
				Volumes: []string{contextDir + ":" + contextDir},
				WorkDir: contextDir,
				User:    tt.user,
				CapDrop: []string{"ALL"},
				CapAdd:  tt.capAdd,
			}
			if tt.nativeOverlay {
				opts.Volumes = append(opts.Volumes, tt.storage)
			} else {
				opts.Devices = []string{"/dev/fuse"}
			}

			cmd := append([]string{"buildah", "build"}, tt.args...)
			tr.run(t, append(cmd, "."), opts)
		})
	}
}

func TestBuildahStrongerIsolation(t *testing.T) {
	t.Parallel()
	tr := requireTaskRunner(t)
	contextDir := buildContext(t)

	for _, user := range []string{"", "0"} {
		storage := rootlessStorage
		userName := "taskuser"
		if user == "0" {
			storage = rootStorage
			userName = "root"
		}
		for _, isolation := range []string{"rootless", "oci"} {
			t.Run(userName+"/"+isolation, func(t *testing.T) {
				t.Parallel()

				tr.run(t, []string{"buildah", "build", "--isolation=" + isolation, "."}, runOptions{
					Volumes:    []string{storage, contextDir + ":" + contextDir},
					WorkDir:    contextDir,
					User:       user,
					Privileged: true,
				})
			})
		}
	}
}
