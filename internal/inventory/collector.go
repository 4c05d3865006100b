// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/konflux-ci/task-runner/internal/runner"
	"github.com/konflux-ci/task-runner/pkg/software"
)

type (
	// Paths locates each inventory source relative to the repository root.
	Paths struct {
		GoTools      string
		GoSubmodules string
		RPM          string
		Pip          string
		LocalTools   string
	}

	// Option configures a Collector.
	Option func(*Collector)

	// Collector lists the packages of one repository checkout.
	Collector struct {
		run        runner.Runner
		root       string
		paths      Paths
		rpmExclude map[string]bool
		renames    map[string]string
		logger     *log.Logger
	}
)

// DefaultPaths returns the source layout of the task-runner repository.
func DefaultPaths() Paths {
	return Paths{
		GoTools:      "deps/go-tools",
		GoSubmodules: "deps/go-submodules",
		RPM:          "deps/rpm",
		Pip:          "deps/pip",
		LocalTools:   "local-tools",
	}
}

// DefaultRPMExclude lists build-only RPMs that are removed before the image is finalized.
func DefaultRPMExclude() []string {
	return []string{"gcc", "python3-devel"}
}

// DefaultSubmoduleRenames maps submodule directories to the name of the one
// binary installed from them.
func DefaultSubmoduleRenames() map[string]string {
	return map[string]string{"kubernetes": "kubectl"}
}

// WithPaths overrides the source layout. Empty fields keep their defaults.
func WithPaths(p Paths) Option {
	return func(c *Collector) {
		if p.GoTools != "" {
			c.paths.GoTools = p.GoTools
		}
		if p.GoSubmodules != "" {
			c.paths.GoSubmodules = p.GoSubmodules
		}
		if p.RPM != "" {
			c.paths.RPM = p.RPM
		}
		if p.Pip != "" {
			c.paths.Pip = p.Pip
		}
		if p.LocalTools != "" {
			c.paths.LocalTools = p.LocalTools
		}
	}
}

// WithRPMExclude replaces the set of RPMs left out of the inventory.
func WithRPMExclude(names ...string) Option {
	return func(c *Collector) {
		c.rpmExclude = make(map[string]bool, len(names))
		for _, n := range names {
			c.rpmExclude[n] = true
		}
	}
}

// WithSubmoduleRenames replaces the submodule directory to package name mapping.
func WithSubmoduleRenames(renames map[string]string) Option {
	return func(c *Collector) {
		c.renames = renames
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a Collector for the repository at root.
func NewCollector(run runner.Runner, root string, opts ...Option) *Collector {
	c := &Collector{
		run:     run,
		root:    root,
		paths:   DefaultPaths(),
		renames: DefaultSubmoduleRenames(),
		logger:  log.Default(),
	}
	WithRPMExclude(DefaultRPMExclude()...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the repository root.
func (c *Collector) Root() string { return c.root }

// List collects every kind of package in a stable order: Go tools, Go
// submodules, RPMs, pip packages, local tools. Package names must be unique
// across kinds.
func (c *Collector) List(ctx context.Context) ([]software.Package, error) {
	steps := []struct {
		kind    software.Kind
		collect func(context.Context) ([]software.Package, error)
	}{
		{software.KindGoTool, c.GoTools},
		{software.KindGoSubmodule, c.GoSubmodules},
		{software.KindRPM, func(context.Context) ([]software.Package, error) { return c.RPMs() }},
		{software.KindPip, func(context.Context) ([]software.Package, error) { return c.PipPackages() }},
		{software.KindLocalTool, func(context.Context) ([]software.Package, error) { return c.LocalTools() }},
	}

	var pkgs []software.Package
	for _, step := range steps {
		found, err := step.collect(ctx)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("collected packages", "kind", step.kind, "count", len(found))
		pkgs = append(pkgs, found...)
	}

	if err := software.CheckUnique(pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (c *Collector) path(rel string) string {
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

// subdirs returns the sorted subdirectories of dir. A missing dir has none.
func (c *Collector) subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("source directory not found", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs, nil
}
