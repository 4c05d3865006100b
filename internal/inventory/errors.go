// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrMissingParentModule is returned when a declared Go tool has no owning require entry.
	ErrMissingParentModule = errors.New("tool has no parent module")

	// ErrNoVersionTag is returned when a submodule checkout has no tags at all.
	ErrNoVersionTag = errors.New("submodule HEAD has no tag")

	// ErrNoSemverTag is returned when none of a submodule's tags look like a version.
	ErrNoSemverTag = errors.New("submodule HEAD has no semver tag")

	// ErrVersionMismatch is returned when an RPM resolves to different or missing EVRs across architectures.
	ErrVersionMismatch = errors.New("mismatched or missing RPM versions")

	// ErrUnresolvedPackage is returned when a declared pip requirement has no pinned version.
	ErrUnresolvedPackage = errors.New("unresolved pip package")

	// ErrMissingScript is returned when a local tool directory lacks its same-named script.
	ErrMissingScript = errors.New("local tool script not found")

	// ErrMissingVersionDeclaration is returned when a local tool script has no VERSION= line.
	ErrMissingVersionDeclaration = errors.New("local tool script declares no VERSION")
)

type (
	// MissingParentModuleError identifies the tool path and the go.mod directory.
	MissingParentModuleError struct {
		ToolPath string
		Dir      string
	}

	// NoVersionTagError identifies the submodule checkout.
	NoVersionTagError struct {
		Dir string
	}

	// NoSemverTagError lists the tags that were considered.
	NoSemverTagError struct {
		Dir  string
		Tags []string
	}

	// VersionMismatchError lists the resolved EVR per architecture. A missing
	// resolution is recorded as an empty string.
	VersionMismatchError struct {
		Name string
		EVRs map[string]string
	}

	// UnresolvedPackageError identifies the requirement and the lock file it is missing from.
	UnresolvedPackageError struct {
		Name     string
		LockFile string
	}

	// MissingScriptError carries the expected script path.
	MissingScriptError struct {
		Path string
	}

	// MissingVersionDeclarationError carries the script path.
	MissingVersionDeclarationError struct {
		Path string
	}
)

// Error implements the error interface.
func (e *MissingParentModuleError) Error() string {
	return fmt.Sprintf("%s has no parent module in %s/go.mod", e.ToolPath, e.Dir)
}

// Unwrap returns ErrMissingParentModule for errors.Is() compatibility.
func (e *MissingParentModuleError) Unwrap() error { return ErrMissingParentModule }

// Error implements the error interface.
func (e *NoVersionTagError) Error() string {
	return fmt.Sprintf("the HEAD of the submodule at %s doesn't have a tag, check out a semver tag", e.Dir)
}

// Unwrap returns ErrNoVersionTag for errors.Is() compatibility.
func (e *NoVersionTagError) Unwrap() error { return ErrNoVersionTag }

// Error implements the error interface.
func (e *NoSemverTagError) Error() string {
	return fmt.Sprintf("none of the tags for the submodule at %s match semver, tags: %s", e.Dir, strings.Join(e.Tags, " "))
}

// Unwrap returns ErrNoSemverTag for errors.Is() compatibility.
func (e *NoSemverTagError) Unwrap() error { return ErrNoSemverTag }

// Error implements the error interface.
func (e *VersionMismatchError) Error() string {
	parts := make([]string, 0, len(e.EVRs))
	for _, arch := range slices.Sorted(maps.Keys(e.EVRs)) {
		evr := e.EVRs[arch]
		if evr == "" {
			evr = "<missing>"
		}
		parts = append(parts, arch+"="+evr)
	}
	return fmt.Sprintf("mismatched or missing versions for %s RPM: %s", e.Name, strings.Join(parts, ", "))
}

// Unwrap returns ErrVersionMismatch for errors.Is() compatibility.
func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

// Error implements the error interface.
func (e *UnresolvedPackageError) Error() string {
	return fmt.Sprintf("%s is not pinned in %s", e.Name, e.LockFile)
}

// Unwrap returns ErrUnresolvedPackage for errors.Is() compatibility.
func (e *UnresolvedPackageError) Unwrap() error { return ErrUnresolvedPackage }

// Error implements the error interface.
func (e *MissingScriptError) Error() string {
	return fmt.Sprintf("local tool script %s not found", e.Path)
}

// Unwrap returns ErrMissingScript for errors.Is() compatibility.
func (e *MissingScriptError) Unwrap() error { return ErrMissingScript }

// Error implements the error interface.
func (e *MissingVersionDeclarationError) Error() string {
	return fmt.Sprintf("%s has no VERSION= line", e.Path)
}

// Unwrap returns ErrMissingVersionDeclaration for errors.Is() compatibility.
func (e *MissingVersionDeclarationError) Unwrap() error { return ErrMissingVersionDeclaration }
