// SPDX-License-Identifier: MPL-2.0

// Package mdtable renders fixed-width Markdown tables and parses the package
// table of a persisted inventory back into a name to version mapping.
//
// The rendered layout is byte-stable: every cell is written as "| " followed
// by the value left-justified to the column width and a single space, and
// every row ends with "|\n". Values longer than the width are never truncated.
package mdtable
