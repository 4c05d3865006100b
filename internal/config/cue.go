// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// MaxFileSize bounds the size of a configuration file.
const MaxFileSize = 1 << 20

// FileTooLargeError is returned when a configuration file exceeds MaxFileSize.
type FileTooLargeError struct {
	Path  string
	Size  int
	Limit int
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds limit of %d bytes", e.Path, e.Size, e.Limit)
}

func checkFileSize(data []byte, path string) error {
	if len(data) > MaxFileSize {
		return &FileTooLargeError{Path: path, Size: len(data), Limit: MaxFileSize}
	}
	return nil
}

// formatCUEError flattens CUE errors into "<file>: <path>: <message>" lines.
func formatCUEError(err error, path string) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		fieldPath := formatFieldPath(cueerrors.Path(e))
		msg := e.Error()
		if fieldPath != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, fieldPath), ":"))
			msg = fieldPath + ": " + msg
		}
		lines = append(lines, msg)
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", path, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", path, strings.Join(lines, "\n  "))
}

// formatFieldPath renders ["rpm", "exclude", "0"] as "rpm.exclude[0]". The
// #Config definition prefix is dropped.
func formatFieldPath(parts []string) string {
	var b strings.Builder
	for _, part := range parts {
		if part == "#Config" {
			continue
		}
		if isIndex(part) && b.Len() > 0 {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
