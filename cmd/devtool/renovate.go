// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/konflux-ci/task-runner/internal/renovate"
)

func newRenovateCommand(app *App, flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "renovate",
		Short: "Generate the Renovate configuration",
		Long: `Generate renovate.json from the current inventory.

The Go module rules only match the modules that provide the installed Go
tools. Use -o - to print to stdout.`,
		Args: cobra.NoArgs,
		RunE: app.runE(flags, func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			pkgs, err := s.collector().List(cmd.Context())
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = filepath.Join(s.root, "renovate.json")
			}
			w, closeFn, err := app.openOutput(path)
			if err != nil {
				return err
			}
			if err := renovate.Write(w, renovate.Generate(pkgs)); err != nil {
				_ = closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}
			s.logger.Info("wrote renovate config", "path", path)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&output, "output-file", "o", "", "output path (default: renovate.json in the repository root, - for stdout)")
	return cmd
}
