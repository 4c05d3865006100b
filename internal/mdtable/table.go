// SPDX-License-Identifier: MPL-2.0

package mdtable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/konflux-ci/task-runner/pkg/software"
)

// DefaultPackageColumnWidth is the fixed column width of the persisted
// package table. A fixed width keeps diffs of the inventory file small.
const DefaultPackageColumnWidth = 30

var (
	// ErrColumnCountMismatch is returned when explicit widths do not match the number of columns.
	ErrColumnCountMismatch = errors.New("column count mismatch")

	// ErrColumnLengthMismatch is returned when columns hold a different number of values.
	ErrColumnLengthMismatch = errors.New("column length mismatch")

	// ErrInvalidWidth is returned when a requested column width is below 1.
	ErrInvalidWidth = errors.New("invalid column width")

	packageRowPattern = regexp.MustCompile(`^\| (\S+)\s*\| (\d\S*)`)
)

type (
	// Column is a named column of a table.
	Column struct {
		Header string
		Values []string
	}

	// Option configures Render.
	Option func(*renderOptions)

	// ColumnCountMismatchError reports how many widths were expected.
	ColumnCountMismatchError struct {
		Columns int
		Widths  int
	}

	// ColumnLengthMismatchError reports the first column whose length differs
	// from the first column.
	ColumnLengthMismatchError struct {
		Header string
		Want   int
		Got    int
	}

	// InvalidWidthError reports a width below 1. Column is -1 for a width
	// applied to every column.
	InvalidWidthError struct {
		Column int
		Width  int
	}

	renderOptions struct {
		uniform    int
		uniformSet bool
		widths     []int
	}
)

// Error implements the error interface.
func (e *ColumnCountMismatchError) Error() string {
	return fmt.Sprintf("need %d widths, got %d", e.Columns, e.Widths)
}

// Unwrap returns ErrColumnCountMismatch for errors.Is() compatibility.
func (e *ColumnCountMismatchError) Unwrap() error { return ErrColumnCountMismatch }

// Error implements the error interface.
func (e *ColumnLengthMismatchError) Error() string {
	return fmt.Sprintf("column %q has %d values, want %d", e.Header, e.Got, e.Want)
}

// Unwrap returns ErrColumnLengthMismatch for errors.Is() compatibility.
func (e *ColumnLengthMismatchError) Unwrap() error { return ErrColumnLengthMismatch }

// Error implements the error interface.
func (e *InvalidWidthError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("width %d must be at least 1", e.Width)
	}
	return fmt.Sprintf("width %d of column %d must be at least 1", e.Width, e.Column)
}

// Unwrap returns ErrInvalidWidth for errors.Is() compatibility.
func (e *InvalidWidthError) Unwrap() error { return ErrInvalidWidth }

// WithWidth applies the same width to every column.
func WithWidth(width int) Option {
	return func(o *renderOptions) {
		o.uniform = width
		o.uniformSet = true
		o.widths = nil
	}
}

// WithWidths sets one width per column.
func WithWidths(widths ...int) Option {
	return func(o *renderOptions) {
		o.uniform = 0
		o.uniformSet = false
		o.widths = widths
	}
}

// Render writes columns as a Markdown table: a header row, a separator row of
// dashes and one row per value. Without an option each column is as wide as
// its longest header or value.
func Render(w io.Writer, columns []Column, opts ...Option) error {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}

	widths, err := resolveWidths(columns, o)
	if err != nil {
		return err
	}

	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0].Values)
	}
	for _, c := range columns {
		if len(c.Values) != rows {
			return &ColumnLengthMismatchError{Header: c.Header, Want: rows, Got: len(c.Values)}
		}
	}

	bw := bufio.NewWriter(w)
	writeRow := func(cell func(col int) string) {
		for col := range columns {
			bw.WriteString("| ")
			bw.WriteString(ljust(cell(col), widths[col]))
			bw.WriteString(" ")
		}
		bw.WriteString("|\n")
	}

	writeRow(func(col int) string { return columns[col].Header })
	writeRow(func(col int) string { return strings.Repeat("-", widths[col]) })
	for row := range rows {
		writeRow(func(col int) string { return columns[col].Values[row] })
	}
	return bw.Flush()
}

// RenderPackages writes the persisted package table (Name, Version, Install
// Method) with every column width fixed to width.
func RenderPackages(w io.Writer, pkgs []software.Package, width int) error {
	names := make([]string, len(pkgs))
	versions := make([]string, len(pkgs))
	methods := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name()
		versions[i] = p.Version()
		methods[i] = p.InstallMethod()
	}
	return Render(w, []Column{
		{Header: "Name", Values: names},
		{Header: "Version", Values: versions},
		{Header: "Install Method", Values: methods},
	}, WithWidth(width))
}

// ParsePackages extracts name to version pairs from the rows of a package
// table. Lines that do not look like "| name | 1.2.3 ..." are ignored, which
// skips the header, the separator and any surrounding prose. When a name
// appears more than once the last row wins.
func ParsePackages(text string) map[string]string {
	versions := make(map[string]string)
	for line := range strings.Lines(text) {
		m := packageRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		versions[m[1]] = m[2]
	}
	return versions
}

func resolveWidths(columns []Column, o renderOptions) ([]int, error) {
	switch {
	case o.widths != nil:
		if len(o.widths) != len(columns) {
			return nil, &ColumnCountMismatchError{Columns: len(columns), Widths: len(o.widths)}
		}
		for i, w := range o.widths {
			if w < 1 {
				return nil, &InvalidWidthError{Column: i, Width: w}
			}
		}
		return o.widths, nil
	case o.uniformSet:
		if o.uniform < 1 {
			return nil, &InvalidWidthError{Column: -1, Width: o.uniform}
		}
		widths := make([]int, len(columns))
		for i := range widths {
			widths[i] = o.uniform
		}
		return widths, nil
	default:
		widths := make([]int, len(columns))
		for i, c := range columns {
			widths[i] = utf8.RuneCountInString(c.Header)
			for _, v := range c.Values {
				widths[i] = max(widths[i], utf8.RuneCountInString(v))
			}
		}
		return widths, nil
	}
}

func ljust(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
