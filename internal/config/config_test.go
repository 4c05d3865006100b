// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func load(t *testing.T, opts LoadOptions) (*Config, error) {
	t.Helper()
	if opts.ConfigDirPath == "" {
		opts.ConfigDirPath = t.TempDir()
	}
	return NewProvider().Load(t.Context(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, LoadOptions{RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want %+v", cfg, DefaultConfig())
	}
}

func TestLoad_RepoFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, filepath.Join(root, RepoConfigFileName), `
inventory: column_width: 40
rpm: exclude: ["gcc"]
submodules: rename: {"tekton-cli": "tkn"}
container: test_image: "localhost/task-runner:test"
`)

	cfg, err := load(t, LoadOptions{RootDir: root})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.Inventory.ColumnWidth != 40 {
		t.Errorf("ColumnWidth = %d, want 40", cfg.Inventory.ColumnWidth)
	}
	if cfg.Inventory.File != "Installed-Software.md" {
		t.Errorf("File = %q, want default", cfg.Inventory.File)
	}
	if !reflect.DeepEqual(cfg.RPM.Exclude, []string{"gcc"}) {
		t.Errorf("RPM.Exclude = %v, want [gcc]", cfg.RPM.Exclude)
	}
	if got := cfg.Submodules.Rename["tekton-cli"]; got != "tkn" {
		t.Errorf("Rename[tekton-cli] = %q, want tkn", got)
	}
	if cfg.Container.TestImage != "localhost/task-runner:test" {
		t.Errorf("TestImage = %q", cfg.Container.TestImage)
	}
	if cfg.Container.Engine != ContainerEnginePodman {
		t.Errorf("Engine = %q, want podman", cfg.Container.Engine)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	userDir := t.TempDir()
	writeFile(t, filepath.Join(userDir, ConfigFileName), `log_level: "info"`)

	cfg, err := load(t, LoadOptions{RootDir: root, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("user config: LogLevel = %q, want info", cfg.LogLevel)
	}

	writeFile(t, filepath.Join(root, RepoConfigFileName), `log_level: "error"`)
	cfg, err = load(t, LoadOptions{RootDir: root, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("repo config: LogLevel = %q, want error", cfg.LogLevel)
	}

	explicit := writeFile(t, filepath.Join(t.TempDir(), "custom.cue"), `log_level: "debug"`)
	cfg, err = load(t, LoadOptions{ConfigFilePath: explicit, RootDir: root, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Source != explicit {
		t.Errorf("explicit config: LogLevel = %q, Source = %q", cfg.LogLevel, cfg.Source)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load() error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown engine", `container: engine: "lxc"`},
		{"unknown field", `colour: "blue"`},
		{"unknown nested field", `paths: docs: "docs"`},
		{"width too small", `inventory: column_width: 0`},
		{"wrong type", `rpm: exclude: "gcc"`},
		{"bad log level", `log_level: "trace"`},
		{"syntax error", `inventory: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, filepath.Join(t.TempDir(), "config.cue"), tt.content)
			_, err := load(t, LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() error = nil, want schema error")
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name %s", err, path)
			}
		})
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), "config.cue"), "// "+strings.Repeat("x", MaxFileSize))
	_, err := load(t, LoadOptions{ConfigFilePath: path})
	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Load() error = %v, want *FileTooLargeError", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DEVTOOL_LOG_LEVEL", "debug")
	t.Setenv("DEVTOOL_INVENTORY_COLUMN_WIDTH", "25")

	cfg, err := load(t, LoadOptions{RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Inventory.ColumnWidth != 25 {
		t.Errorf("ColumnWidth = %d, want 25", cfg.Inventory.ColumnWidth)
	}
}

func TestLoad_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("DEVTOOL_CONTAINER_ENGINE", "lxc")

	_, err := load(t, LoadOptions{RootDir: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), `"lxc"`) {
		t.Errorf("error %q does not mention the bad value", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); err == nil {
		t.Fatal("Load() error = nil, want context error")
	}
}

func TestInit_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	cfg, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() of generated file error = %v\n%s", err, GenerateCUE(DefaultConfig()))
	}
	want := DefaultConfig()
	want.Source = path
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestInit_Existing(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), ConfigFileName), `log_level: "info"`)
	if err := Init(path, false); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("Init() error = %v, want ErrConfigExists", err)
	}
	if data, _ := os.ReadFile(path); string(data) != `log_level: "info"` {
		t.Errorf("existing file modified: %q", data)
	}

	if err := Init(path, true); err != nil {
		t.Fatalf("Init(force) error = %v", err)
	}
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "column_width: 30") {
		t.Errorf("forced Init() did not write defaults:\n%s", data)
	}
}

func TestGenerateCUE(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Submodules.Rename["b"] = "bee"
	cfg.Submodules.Rename["a"] = "ay"
	got := GenerateCUE(cfg)

	for _, want := range []string{
		`repository: "konflux-ci/task-runner"`,
		`rpm: exclude: ["gcc", "python3-devel"]`,
		"\t\"a\": \"ay\"\n\t\"b\": \"bee\"\n\t\"kubernetes\": \"kubectl\"\n",
		`engine:     "podman"`,
		`log_level: "warn"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("GenerateCUE() missing %q:\n%s", want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	userDir := t.TempDir()

	got, err := Resolve(LoadOptions{RootDir: root, ConfigDirPath: userDir})
	if err != nil || got != "" {
		t.Fatalf("Resolve() = %q, %v; want empty", got, err)
	}

	user := writeFile(t, filepath.Join(userDir, ConfigFileName), "")
	if got, _ := Resolve(LoadOptions{RootDir: root, ConfigDirPath: userDir}); got != user {
		t.Errorf("Resolve() = %q, want %q", got, user)
	}

	repo := writeFile(t, filepath.Join(root, RepoConfigFileName), "")
	if got, _ := Resolve(LoadOptions{RootDir: root, ConfigDirPath: userDir}); got != repo {
		t.Errorf("Resolve() = %q, want %q", got, repo)
	}
}

func TestFormatFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		parts []string
		want  string
	}{
		{nil, ""},
		{[]string{"#Config", "container", "engine"}, "container.engine"},
		{[]string{"rpm", "exclude", "0"}, "rpm.exclude[0]"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatFieldPath(tt.parts); got != tt.want {
			t.Errorf("formatFieldPath(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}
