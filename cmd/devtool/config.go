// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/konflux-ci/task-runner/internal/config"
)

// newConfigCommand creates the `devtool config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage devtool configuration",
		Long: `Manage devtool configuration.

The first existing file is used:
  1. the --config flag
  2. devtool.cue in the repository root
  3. config.cue in the user config directory
     (Linux: ~/.config/devtool/config.cue)

DEVTOOL_* environment variables override file values, e.g.
DEVTOOL_INVENTORY_FILE or DEVTOOL_LOG_LEVEL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: app.runE(flags, func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			showConfig(app.stdout, s.cfg)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: app.runE(flags, func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot(cmd.Context(), app.runnerOrDefault(), flags.root)
			if err != nil {
				root = ""
			}
			path, err := config.Resolve(config.LoadOptions{ConfigFilePath: flags.configFile, RootDir: root})
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(app.stdout, "(using defaults)")
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: app.runE(flags, func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		}),
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create a default configuration file",
		Long: `Create a default configuration file at PATH, or in the user config
directory when PATH is omitted. An existing file is kept unless --force is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.runE(flags, func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.ConfigFileName)
			}
			if err := config.Init(path, force); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		}),
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	key := func(k string) string { return CmdStyle.Render(k) }

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s:\n", key("upstream"))
	fmt.Fprintf(w, "  repository: %s\n", cfg.Upstream.Repository)
	fmt.Fprintf(w, "  url: %s\n", cfg.Upstream.URL)
	fmt.Fprintf(w, "%s:\n", key("inventory"))
	fmt.Fprintf(w, "  file: %s\n", cfg.Inventory.File)
	fmt.Fprintf(w, "  column_width: %d\n", cfg.Inventory.ColumnWidth)
	fmt.Fprintf(w, "%s:\n", key("paths"))
	fmt.Fprintf(w, "  go_tools: %s\n", cfg.Paths.GoTools)
	fmt.Fprintf(w, "  go_submodules: %s\n", cfg.Paths.GoSubmodules)
	fmt.Fprintf(w, "  rpm: %s\n", cfg.Paths.RPM)
	fmt.Fprintf(w, "  pip: %s\n", cfg.Paths.Pip)
	fmt.Fprintf(w, "  local_tools: %s\n", cfg.Paths.LocalTools)
	fmt.Fprintf(w, "%s: %s\n", key("rpm.exclude"), strings.Join(cfg.RPM.Exclude, ", "))
	fmt.Fprintf(w, "%s:\n", key("submodules.rename"))
	for _, name := range slices.Sorted(maps.Keys(cfg.Submodules.Rename)) {
		fmt.Fprintf(w, "  %s: %s\n", name, cfg.Submodules.Rename[name])
	}
	fmt.Fprintf(w, "%s:\n", key("container"))
	fmt.Fprintf(w, "  engine: %s\n", cfg.Container.Engine)
	fmt.Fprintf(w, "  test_image: %s\n", cfg.Container.TestImage)
	fmt.Fprintf(w, "%s: %s\n", key("log_level"), cfg.LogLevel)
}
