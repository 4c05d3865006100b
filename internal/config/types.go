// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime the image tests use.
	ContainerEngine string

	// LogLevel is the minimum level of log messages written to stderr.
	LogLevel string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the devtool configuration.
	Config struct {
		Upstream   UpstreamConfig   `json:"upstream" mapstructure:"upstream"`
		Inventory  InventoryConfig  `json:"inventory" mapstructure:"inventory"`
		Paths      PathsConfig      `json:"paths" mapstructure:"paths"`
		RPM        RPMConfig        `json:"rpm" mapstructure:"rpm"`
		Submodules SubmodulesConfig `json:"submodules" mapstructure:"submodules"`
		Container  ContainerConfig  `json:"container" mapstructure:"container"`
		LogLevel   LogLevel         `json:"log_level" mapstructure:"log_level"`

		// Source is the file the configuration was read from; empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// UpstreamConfig identifies the canonical repository among git remotes.
	UpstreamConfig struct {
		Repository string `json:"repository" mapstructure:"repository"`
		URL        string `json:"url" mapstructure:"url"`
	}

	// InventoryConfig describes the persisted inventory document.
	InventoryConfig struct {
		File        string `json:"file" mapstructure:"file"`
		ColumnWidth int    `json:"column_width" mapstructure:"column_width"`
	}

	// PathsConfig locates each inventory source relative to the repository root.
	PathsConfig struct {
		GoTools      string `json:"go_tools" mapstructure:"go_tools"`
		GoSubmodules string `json:"go_submodules" mapstructure:"go_submodules"`
		RPM          string `json:"rpm" mapstructure:"rpm"`
		Pip          string `json:"pip" mapstructure:"pip"`
		LocalTools   string `json:"local_tools" mapstructure:"local_tools"`
	}

	// RPMConfig tunes RPM collection.
	RPMConfig struct {
		Exclude []string `json:"exclude" mapstructure:"exclude"`
	}

	// SubmodulesConfig tunes Go submodule collection.
	SubmodulesConfig struct {
		Rename map[string]string `json:"rename" mapstructure:"rename"`
	}

	// ContainerConfig configures the image test suite.
	ContainerConfig struct {
		Engine    ContainerEngine `json:"engine" mapstructure:"engine"`
		TestImage string          `json:"test_image" mapstructure:"test_image"`
	}
)

// DefaultConfig returns the configuration matching the task-runner repository.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Repository: "konflux-ci/task-runner",
			URL:        "https://github.com/konflux-ci/task-runner.git",
		},
		Inventory: InventoryConfig{
			File:        "Installed-Software.md",
			ColumnWidth: 30,
		},
		Paths: PathsConfig{
			GoTools:      "deps/go-tools",
			GoSubmodules: "deps/go-submodules",
			RPM:          "deps/rpm",
			Pip:          "deps/pip",
			LocalTools:   "local-tools",
		},
		RPM: RPMConfig{
			Exclude: []string{"gcc", "python3-devel"},
		},
		Submodules: SubmodulesConfig{
			Rename: map[string]string{"kubernetes": "kubectl"},
		},
		Container: ContainerConfig{
			Engine: ContainerEnginePodman,
		},
		LogLevel: "warn",
	}
}

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// Validate returns nil if the ContainerEngine is one of the defined engines.
func (ce ContainerEngine) Validate() error {
	switch ce {
	case ContainerEnginePodman, ContainerEngineDocker:
		return nil
	default:
		return &InvalidContainerEngineError{Value: ce}
	}
}

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: podman, docker)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Level converts to a charmbracelet/log level.
func (l LogLevel) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(string(l))
	if err != nil || l == "" {
		return log.WarnLevel, &InvalidLogLevelError{Value: l}
	}
	return lvl, nil
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks constraints the CUE schema cannot see, such as values
// injected through environment variables.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Container.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Inventory.ColumnWidth < 1 {
		errs = append(errs, fmt.Errorf("inventory.column_width must be positive, got %d", c.Inventory.ColumnWidth))
	}
	if strings.TrimSpace(c.Inventory.File) == "" {
		errs = append(errs, errors.New("inventory.file must not be empty"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
