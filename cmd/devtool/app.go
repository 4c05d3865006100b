// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/konflux-ci/task-runner/internal/config"
	"github.com/konflux-ci/task-runner/internal/diff"
	"github.com/konflux-ci/task-runner/internal/git"
	"github.com/konflux-ci/task-runner/internal/inventory"
	"github.com/konflux-ci/task-runner/internal/runner"
)

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App and reach configuration and subprocesses through it.
	App struct {
		Config config.Provider
		Runner runner.Runner
		stdout io.Writer
		stderr io.Writer
		// guideStyle is the glamour style for issue guides.
		guideStyle string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Runner runner.Runner
		Stdout io.Writer
		Stderr io.Writer
		// GuideStyle defaults to "dark".
		GuideStyle string
	}

	// rootFlags holds the persistent flags shared by every subcommand.
	rootFlags struct {
		root       string
		configFile string
		verbose    bool
	}

	// session is the per-invocation state resolved from flags: repository
	// root, configuration and logger.
	session struct {
		root   string
		cfg    *config.Config
		logger *log.Logger
		run    runner.Runner
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.GuideStyle == "" {
		deps.GuideStyle = "dark"
	}
	return &App{
		Config:     deps.Config,
		Runner:     deps.Runner,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		guideStyle: deps.GuideStyle,
	}
}

// newSession resolves the repository root and loads the configuration. When
// requireRoot is false a missing git checkout only disables the repository
// config file lookup.
func (a *App) newSession(ctx context.Context, flags *rootFlags, requireRoot bool) (*session, error) {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "devtool"})
	logger.SetLevel(log.WarnLevel)
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	run := a.Runner
	if run == nil {
		run = runner.New(runner.WithLogger(logger))
	}

	root, err := resolveRoot(ctx, run, flags.root)
	if err != nil {
		if requireRoot {
			return nil, err
		}
		logger.Debug("no repository root", "error", err)
		root = ""
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configFile,
		RootDir:        root,
	})
	if err != nil {
		return nil, err
	}

	if !flags.verbose {
		level, err := cfg.LogLevel.Level()
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}
	logger.Debug("session", "root", root, "config", cfg.Source)

	return &session{root: root, cfg: cfg, logger: logger, run: run}, nil
}

// resolveRoot returns --root as an absolute path, or asks git for the
// top-level directory of the working directory.
func resolveRoot(ctx context.Context, run runner.Runner, flagRoot string) (string, error) {
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("invalid --root: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("invalid --root: %s is not a directory", abs)
		}
		return abs, nil
	}

	top, err := git.New(run, "").TopLevel(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotAGitRepository, err)
	}
	return top, nil
}

func (s *session) collector() *inventory.Collector {
	return inventory.NewCollector(s.run, s.root,
		inventory.WithPaths(inventory.Paths{
			GoTools:      s.cfg.Paths.GoTools,
			GoSubmodules: s.cfg.Paths.GoSubmodules,
			RPM:          s.cfg.Paths.RPM,
			Pip:          s.cfg.Paths.Pip,
			LocalTools:   s.cfg.Paths.LocalTools,
		}),
		inventory.WithRPMExclude(s.cfg.RPM.Exclude...),
		inventory.WithSubmoduleRenames(s.cfg.Submodules.Rename),
		inventory.WithLogger(s.logger),
	)
}

func (s *session) differ() *diff.Differ {
	return diff.New(git.New(s.run, s.root), s.collector(),
		diff.WithInventoryFile(s.cfg.Inventory.File),
		diff.WithUpstream(s.cfg.Upstream.Repository, s.cfg.Upstream.URL),
		diff.WithLogger(s.logger),
	)
}

// runE adapts a handler to cobra: failures are classified, rendered to
// stderr with their remediation guide and turned into exit code 1.
func (a *App) runE(flags *rootFlags, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}

		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}

		issueID, styled := classifyError(err, flags.verbose)
		renderServiceError(a.stderr, newServiceError(err, issueID, styled), a.guideStyle)
		return &ExitError{Code: 1, Err: err}
	}
}

// openOutput returns stdout for "" or "-", otherwise creates the file.
func (a *App) openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (a *App) runnerOrDefault() runner.Runner {
	if a.Runner != nil {
		return a.Runner
	}
	return runner.New(runner.WithLogger(log.NewWithOptions(a.stderr, log.Options{Prefix: "devtool", Level: log.WarnLevel})))
}
