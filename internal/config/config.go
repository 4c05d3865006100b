// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/konflux-ci/task-runner/internal/issue"
)

const (
	// AppName is the directory name used under the user configuration directory.
	AppName = "devtool"
	// ConfigFileName is the file name looked up in the user configuration directory.
	ConfigFileName = "config.cue"
	// RepoConfigFileName is the file name looked up at the repository root.
	RepoConfigFileName = "devtool.cue"
	// EnvPrefix prefixes environment variable overrides, e.g. DEVTOOL_LOG_LEVEL.
	EnvPrefix = "DEVTOOL"
)

var (
	//go:embed config_schema.cue
	configSchema string

	// ErrConfigExists is returned by Init when the target file already exists.
	ErrConfigExists = errors.New("config file already exists")
)

// ConfigDir returns the per-user configuration directory for devtool.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// Resolve returns the configuration file Load would read, or "" when none
// exists and the defaults apply.
func Resolve(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Check the path passed to --config").
				WithSuggestion("Run 'devtool config init' to create a configuration file").
				Wrap(fs.ErrNotExist).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if opts.RootDir != "" {
		if path := filepath.Join(opts.RootDir, RepoConfigFileName); fileExists(path) {
			return path, nil
		}
	}

	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		// No user config directory (e.g. HOME unset) means defaults.
		return "", nil //nolint:nilerr // defaults apply
	}
	if path := filepath.Join(dir, ConfigFileName); fileExists(path) {
		return path, nil
	}
	return "", nil
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	v := viper.New()
	v.SetDefault("upstream.repository", defaults.Upstream.Repository)
	v.SetDefault("upstream.url", defaults.Upstream.URL)
	v.SetDefault("inventory.file", defaults.Inventory.File)
	v.SetDefault("inventory.column_width", defaults.Inventory.ColumnWidth)
	v.SetDefault("paths.go_tools", defaults.Paths.GoTools)
	v.SetDefault("paths.go_submodules", defaults.Paths.GoSubmodules)
	v.SetDefault("paths.rpm", defaults.Paths.RPM)
	v.SetDefault("paths.pip", defaults.Paths.Pip)
	v.SetDefault("paths.local_tools", defaults.Paths.LocalTools)
	v.SetDefault("rpm.exclude", defaults.RPM.Exclude)
	v.SetDefault("submodules.rename", defaults.Submodules.Rename)
	v.SetDefault("container.engine", string(defaults.Container.Engine))
	v.SetDefault("container.test_image", defaults.Container.TestImage)
	v.SetDefault("log_level", string(defaults.LogLevel))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := Resolve(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check the file against the fields printed by 'devtool config dump'").
				WithSuggestion("Run 'devtool config init --force' to regenerate a default file").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("decode configuration").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check DEVTOOL_* environment variables for invalid values").
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

// loadCUEIntoViper validates a file against #Config and merges its concrete
// values over the defaults already registered on v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, path); err != nil {
		return err
	}

	cctx := cuecontext.New()
	schemaValue := cctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := cctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var values map[string]any
	if err := unified.Decode(&values); err != nil {
		return formatCUEError(err, path)
	}
	return v.MergeConfigMap(values)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Init writes the default configuration to path, creating parent
// directories. An existing file is kept unless force is set.
func Init(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg as a configuration file accepted by Load.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// devtool configuration\n")
	sb.WriteString("// Omitted fields keep their built-in defaults.\n\n")

	sb.WriteString("upstream: {\n")
	fmt.Fprintf(&sb, "\trepository: %s\n", strconv.Quote(cfg.Upstream.Repository))
	fmt.Fprintf(&sb, "\turl:        %s\n", strconv.Quote(cfg.Upstream.URL))
	sb.WriteString("}\n\n")

	sb.WriteString("inventory: {\n")
	fmt.Fprintf(&sb, "\tfile:         %s\n", strconv.Quote(cfg.Inventory.File))
	fmt.Fprintf(&sb, "\tcolumn_width: %d\n", cfg.Inventory.ColumnWidth)
	sb.WriteString("}\n\n")

	sb.WriteString("paths: {\n")
	fmt.Fprintf(&sb, "\tgo_tools:      %s\n", strconv.Quote(cfg.Paths.GoTools))
	fmt.Fprintf(&sb, "\tgo_submodules: %s\n", strconv.Quote(cfg.Paths.GoSubmodules))
	fmt.Fprintf(&sb, "\trpm:           %s\n", strconv.Quote(cfg.Paths.RPM))
	fmt.Fprintf(&sb, "\tpip:           %s\n", strconv.Quote(cfg.Paths.Pip))
	fmt.Fprintf(&sb, "\tlocal_tools:   %s\n", strconv.Quote(cfg.Paths.LocalTools))
	sb.WriteString("}\n\n")

	sb.WriteString("rpm: exclude: [")
	for i, name := range cfg.RPM.Exclude {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(name))
	}
	sb.WriteString("]\n\n")

	sb.WriteString("submodules: rename: {\n")
	names := make([]string, 0, len(cfg.Submodules.Rename))
	for name := range cfg.Submodules.Rename {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "\t%s: %s\n", strconv.Quote(name), strconv.Quote(cfg.Submodules.Rename[name]))
	}
	sb.WriteString("}\n\n")

	sb.WriteString("container: {\n")
	fmt.Fprintf(&sb, "\tengine:     %s\n", strconv.Quote(string(cfg.Container.Engine)))
	fmt.Fprintf(&sb, "\ttest_image: %s\n", strconv.Quote(cfg.Container.TestImage))
	sb.WriteString("}\n\n")

	fmt.Fprintf(&sb, "log_level: %s\n", strconv.Quote(string(cfg.LogLevel)))

	return sb.String()
}
