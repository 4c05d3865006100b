// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the devtool command tree.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "devtool",
		Short: "Helper tool for development in the task-runner repository",
		Long: TitleStyle.Render("devtool") + SubtitleStyle.Render(" - helper tool for the task-runner image") + `

devtool lists the software installed into the task-runner image, compares
that inventory between git revisions and generates the Renovate
configuration that keeps it up to date.

` + SubtitleStyle.Render("Examples:") + `
  devtool ls -f md -o Installed-Software.md   Regenerate the inventory document
  devtool diff v0.1.0                         Changes since a release
  devtool diff main HEAD --fail-on breaking   Fail on major updates or removals
  devtool renovate                            Regenerate renovate.json`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.root, "root", "", "repository root (default: git top-level of the working directory)")
	pf.StringVar(&flags.configFile, "config", "", "config file (default: <root>/devtool.cue, then the user config directory)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and verbose errors")

	rootCmd.AddCommand(newListCommand(app, flags))
	rootCmd.AddCommand(newDiffCommand(app, flags))
	rootCmd.AddCommand(newRenovateCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the resulting code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError leaves ExitErrors alone, they were rendered by the command.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
