// SPDX-License-Identifier: MPL-2.0

package version

import "fmt"

// Change types in order of importance. The numeric order is relied on by
// IsBreaking and IsFeature and must not be reshuffled.
const (
	Other ChangeType = iota
	Minor
	Added
	Major
	Removed
)

// ChangeType classifies the transition of one package between inventories.
type ChangeType int

// String returns the lower-case name of the change type.
func (c ChangeType) String() string {
	switch c {
	case Other:
		return "other"
	case Minor:
		return "minor"
	case Added:
		return "added"
	case Major:
		return "major"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseChangeType is the inverse of ChangeType.String.
func ParseChangeType(s string) (ChangeType, error) {
	for c := Other; c <= Removed; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown change type %q", s)
}

// IsBreaking reports whether the change is at least as severe as a major bump.
func (c ChangeType) IsBreaking() bool { return c >= Major }

// IsFeature reports whether the change is at least as severe as a minor bump.
func (c ChangeType) IsFeature() bool { return c >= Minor }

// Classify determines how a package changed from oldVersion to newVersion.
// An empty string means the package is absent on that side.
func Classify(oldVersion, newVersion string) (ChangeType, error) {
	if newVersion == "" {
		return Removed, nil
	}
	if oldVersion == "" {
		return Added, nil
	}

	oldV, err := Parse(oldVersion)
	if err != nil {
		return 0, err
	}
	newV, err := Parse(newVersion)
	if err != nil {
		return 0, err
	}

	if oldV.Major != newV.Major {
		return Major, nil
	}
	if oldV.Minor != newV.Minor {
		return Minor, nil
	}
	// patch, a fourth RPM component, the release...
	return Other, nil
}
