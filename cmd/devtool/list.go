// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/glamour"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/konflux-ci/task-runner/internal/mdtable"
	"github.com/konflux-ci/task-runner/pkg/software"
)

// listFormats are the values accepted by ls --format.
var listFormats = []string{"txt", "json", "md", "toml"}

// inventoryTitle heads the Markdown inventory document.
const inventoryTitle = "# Installed Software"

type listOptions struct {
	format string
	output string
	render bool
}

func newListCommand(app *App, flags *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List software to be installed in the image",
		Long: `List software to be installed in the image, sorted by name.

Formats:
  txt   one "name version" line per package
  json  array of package objects
  md    the Installed-Software.md document
  toml  [[package]] tables`,
		Args: cobra.NoArgs,
		RunE: app.runE(flags, func(cmd *cobra.Command, _ []string) error {
			return app.list(cmd, flags, opts)
		}),
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "txt", "output format (txt, json, md, toml)")
	cmd.Flags().StringVarP(&opts.output, "output-file", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.render, "render", false, "render Markdown output for the terminal")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(listFormats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (a *App) list(cmd *cobra.Command, flags *rootFlags, opts *listOptions) error {
	if !slices.Contains(listFormats, opts.format) {
		return fmt.Errorf("invalid format %q (valid: txt, json, md, toml)", opts.format)
	}
	if opts.render && opts.format != "md" {
		return fmt.Errorf("--render requires --format md")
	}

	s, err := a.newSession(cmd.Context(), flags, true)
	if err != nil {
		return err
	}
	pkgs, err := s.collector().List(cmd.Context())
	if err != nil {
		return err
	}
	pkgs = software.SortByName(pkgs)

	var buf bytes.Buffer
	if err := writePackages(&buf, opts.format, pkgs, s.cfg.Inventory.ColumnWidth); err != nil {
		return err
	}

	out := buf.Bytes()
	if opts.render {
		rendered, err := glamour.RenderBytes(out, "dark")
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		out = rendered
	}

	w, closeFn, err := a.openOutput(opts.output)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	s.logger.Debug("listed packages", "count", len(pkgs), "format", opts.format)
	return nil
}

// writePackages renders an inventory, already sorted, in one of listFormats.
func writePackages(w io.Writer, format string, pkgs []software.Package, width int) error {
	switch format {
	case "txt":
		for _, p := range pkgs {
			if _, err := fmt.Fprintln(w, p.Name(), p.Version()); err != nil {
				return err
			}
		}
		return nil
	case "json":
		data, err := json.MarshalIndent(packageMaps(pkgs), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "md":
		if _, err := io.WriteString(w, inventoryTitle+"\n\n"); err != nil {
			return err
		}
		return mdtable.RenderPackages(w, pkgs, width)
	case "toml":
		return toml.NewEncoder(w).Encode(struct {
			Packages []map[string]string `toml:"package"`
		}{packageMaps(pkgs)})
	default:
		return fmt.Errorf("invalid format %q", format)
	}
}

func packageMaps(pkgs []software.Package) []map[string]string {
	out := make([]map[string]string, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.AsMap())
	}
	return out
}
