// SPDX-License-Identifier: MPL-2.0

// Package version parses the loose MAJOR.MINOR[.REST] versions found in the
// software inventory and classifies how a package changed between two
// inventories.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

type (
	// Version is a parsed MAJOR.MINOR[.REST...][-SUFFIX] version. Components
	// past the minor number and the release/pre-release suffix are kept
	// verbatim but never compared.
	Version struct {
		Major int
		Minor int
		Rest  []string
		// Suffix is everything from the first '-' or '+', e.g. an RPM release.
		Suffix string
	}

	// InvalidVersionError is returned when a string does not parse as MAJOR.MINOR[...].
	InvalidVersionError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Parse parses s. Major and minor must be non-negative decimal integers.
// A '-' or '+' starts a suffix (RPM release, pre-release, build metadata)
// that is retained but not validated.
func Parse(s string) (Version, error) {
	core, suffix := s, ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core, suffix = s[:i], s[i:]
	}

	parts := strings.Split(core, ".")
	if len(parts) < 2 {
		return Version{}, &InvalidVersionError{Value: s, Reason: "expected MAJOR.MINOR"}
	}

	major, err := parseNumber(parts[0])
	if err != nil {
		return Version{}, &InvalidVersionError{Value: s, Reason: "major " + err.Error()}
	}
	minor, err := parseNumber(parts[1])
	if err != nil {
		return Version{}, &InvalidVersionError{Value: s, Reason: "minor " + err.Error()}
	}

	v := Version{Major: major, Minor: minor, Suffix: suffix}
	if len(parts) > 2 {
		v.Rest = parts[2:]
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String reassembles the version.
func (v Version) String() string {
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	if len(v.Rest) > 0 {
		s += "." + strings.Join(v.Rest, ".")
	}
	return s + v.Suffix
}

// IsTag reports whether ref looks like a version tag: "v" followed by a
// parseable version.
func IsTag(ref string) bool {
	rest, ok := strings.CutPrefix(ref, "v")
	if !ok {
		return false
	}
	_, err := Parse(rest)
	return err == nil
}

func parseNumber(s string) (int, error) {
	if s == "" {
		return 0, errors.New("is empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a number", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return n, nil
}
