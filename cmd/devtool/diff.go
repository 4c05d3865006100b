// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/konflux-ci/task-runner/internal/diff"
	"github.com/konflux-ci/task-runner/internal/mdtable"
	"github.com/konflux-ci/task-runner/internal/version"
)

var (
	diffFormats = []string{"text", "json", "md"}
	failOnModes = []string{"none", "feature", "breaking"}
)

type (
	diffOptions struct {
		format string
		failOn string
	}

	// changeRecord is a classified change as printed by diff.
	changeRecord struct {
		Name       string             `json:"name"`
		OldVersion string             `json:"old_version,omitempty"`
		NewVersion string             `json:"new_version,omitempty"`
		Change     version.ChangeType `json:"change"`
		Direction  diff.Direction     `json:"direction,omitempty"`
	}
)

func newDiffCommand(app *App, flags *rootFlags) *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff BASE [HEAD]",
		Short: "Show software changes between two revisions",
		Long: `Compare the installed-software inventory at BASE with the one at HEAD.

Without HEAD the live inventory of the working tree is used. Version tags
(v1.2.3) missing locally are fetched from the upstream remote.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: app.runE(flags, func(cmd *cobra.Command, args []string) error {
			head := ""
			if len(args) == 2 {
				head = args[1]
			}
			return app.diff(cmd, flags, opts, args[0], head)
		}),
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format (text, json, md)")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "none", "exit 1 if a change is at least this severe (none, feature, breaking)")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(diffFormats, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("fail-on", cobra.FixedCompletions(failOnModes, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (a *App) diff(cmd *cobra.Command, flags *rootFlags, opts *diffOptions, base, head string) error {
	if !slices.Contains(diffFormats, opts.format) {
		return fmt.Errorf("invalid format %q (valid: text, json, md)", opts.format)
	}
	if !slices.Contains(failOnModes, opts.failOn) {
		return fmt.Errorf("invalid --fail-on %q (valid: none, feature, breaking)", opts.failOn)
	}

	s, err := a.newSession(cmd.Context(), flags, true)
	if err != nil {
		return err
	}
	changed, err := s.differ().Diff(cmd.Context(), base, head)
	if err != nil {
		return err
	}

	records, err := classifyChanges(changed)
	if err != nil {
		return err
	}
	if err := writeChanges(a.stdout, opts.format, records); err != nil {
		return err
	}

	if failing := countFailing(records, opts.failOn); failing > 0 {
		fmt.Fprintf(a.stderr, "%s %d change(s) at or above %q\n", ErrorStyle.Render("Failed:"), failing, opts.failOn)
		return &ExitError{Code: 1}
	}
	return nil
}

func classifyChanges(changed []diff.ChangedPackage) ([]changeRecord, error) {
	records := make([]changeRecord, 0, len(changed))
	for _, c := range changed {
		ct, err := c.Change()
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", c.Name, err)
		}
		records = append(records, changeRecord{
			Name:       c.Name,
			OldVersion: c.OldVersion,
			NewVersion: c.NewVersion,
			Change:     ct,
			Direction:  c.Direction(),
		})
	}
	return records, nil
}

func countFailing(records []changeRecord, failOn string) int {
	n := 0
	for _, r := range records {
		switch {
		case failOn == "breaking" && r.Change.IsBreaking(),
			failOn == "feature" && r.Change.IsFeature():
			n++
		}
	}
	return n
}

func writeChanges(w io.Writer, format string, records []changeRecord) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "md":
		cols := []mdtable.Column{
			{Header: "Name"},
			{Header: "Old Version"},
			{Header: "New Version"},
			{Header: "Change"},
		}
		for _, r := range records {
			cols[0].Values = append(cols[0].Values, r.Name)
			cols[1].Values = append(cols[1].Values, orDash(r.OldVersion))
			cols[2].Values = append(cols[2].Values, orDash(r.NewVersion))
			cols[3].Values = append(cols[3].Values, r.Change.String())
		}
		return mdtable.Render(w, cols)
	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, SubtitleStyle.Render("No changes."))
			return err
		}
		width := 0
		for _, r := range records {
			width = max(width, len(r.Name))
		}
		for _, r := range records {
			line := fmt.Sprintf("%-*s  %s -> %s  %s", width, r.Name, orDash(r.OldVersion), orDash(r.NewVersion), changeStyle(r.Change).Render(r.Change.String()))
			if r.Direction == diff.DirectionDowngrade {
				line += " " + WarningStyle.Render("(downgrade)")
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
}

func changeStyle(ct version.ChangeType) lipgloss.Style {
	switch {
	case ct.IsBreaking():
		return breakingStyle
	case ct.IsFeature():
		return featureStyle
	default:
		return otherStyle
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
