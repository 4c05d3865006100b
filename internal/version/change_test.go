// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		old  string
		new  string
		want ChangeType
	}{
		{name: "foo", old: "1.2.3", new: "2.0.0", want: Major},
		{name: "bar", old: "1.2.3", new: "1.3.0", want: Minor},
		{name: "baz", old: "1.2.3", new: "1.2.9", want: Other},
		{name: "qux", old: "", new: "1.0.0", want: Added},
		{name: "zap", old: "1.0.0", new: "", want: Removed},
		{name: "major ignores minor", old: "1.9.9", new: "2.9.9", want: Major},
		{name: "major downgrade", old: "3.0.0", new: "2.5.0", want: Major},
		{name: "rpm release only", old: "2.47.1-1.el10", new: "2.47.1-2.el10", want: Other},
		{name: "rpm fourth component", old: "10.4.0.1", new: "10.4.0.2", want: Other},
		{name: "removed ignores unparseable old", old: "garbage", new: "", want: Removed},
		{name: "added ignores unparseable new", old: "", new: "garbage", want: Added},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Classify(tt.old, tt.new)
			if err != nil {
				t.Fatalf("Classify(%q, %q) error = %v", tt.old, tt.new, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.old, tt.new, got, tt.want)
			}
		})
	}
}

func TestClassify_InvalidVersion(t *testing.T) {
	t.Parallel()

	if _, err := Classify("1.2.3", "latest"); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Classify() error = %v, want ErrInvalidVersion", err)
	}
	if _, err := Classify("abc", "1.2.3"); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Classify() error = %v, want ErrInvalidVersion", err)
	}
}

func TestChangeType_Ordering(t *testing.T) {
	t.Parallel()

	ordered := []ChangeType{Other, Minor, Added, Major, Removed}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Errorf("%v must be less severe than %v", ordered[i-1], ordered[i])
		}
	}
	if Other != 0 || Removed != 4 {
		t.Errorf("numeric values changed: Other=%d Removed=%d", Other, Removed)
	}
}

func TestChangeType_Predicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c        ChangeType
		breaking bool
		feature  bool
	}{
		{Other, false, false},
		{Minor, false, true},
		{Added, false, true},
		{Major, true, true},
		{Removed, true, true},
	}
	for _, tt := range tests {
		if got := tt.c.IsBreaking(); got != tt.breaking {
			t.Errorf("%v.IsBreaking() = %v, want %v", tt.c, got, tt.breaking)
		}
		if got := tt.c.IsFeature(); got != tt.feature {
			t.Errorf("%v.IsFeature() = %v, want %v", tt.c, got, tt.feature)
		}
	}
}

func TestParseChangeType(t *testing.T) {
	t.Parallel()

	for c := Other; c <= Removed; c++ {
		got, err := ParseChangeType(c.String())
		if err != nil || got != c {
			t.Errorf("ParseChangeType(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseChangeType("patch"); err == nil {
		t.Error("ParseChangeType(patch) expected error")
	}
	if got := ChangeType(42).String(); got != "ChangeType(42)" {
		t.Errorf("String() of unknown = %q", got)
	}
}
