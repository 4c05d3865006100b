// SPDX-License-Identifier: MPL-2.0

package software

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// KindGoTool is a tool installed with `go install` from a tools module.
	KindGoTool Kind = "go-tool"
	// KindGoSubmodule is a binary built from a git submodule checkout.
	KindGoSubmodule Kind = "go-submodule"
	// KindRPM is a package installed from the RPM lockfile.
	KindRPM Kind = "rpm"
	// KindPip is a Python package installed with pip.
	KindPip Kind = "pip"
	// KindLocalTool is a shell script maintained in this repository.
	KindLocalTool Kind = "local-tool"
)

// ErrDuplicatePackage is the sentinel error wrapped by DuplicatePackageError.
var ErrDuplicatePackage = errors.New("duplicate package name")

type (
	// Kind is the discriminator tag of a Package variant.
	Kind string

	// Package is the sum type over all installed-software variants.
	// The interface is sealed: only types in this package implement it.
	Package interface {
		// Name is the display name, unique within one inventory.
		Name() string
		// Version is the installed version, never empty.
		Version() string
		// Kind returns the variant tag.
		Kind() Kind
		// InstallMethod is the human-readable install method used for display.
		InstallMethod() string
		// AsMap flattens the package into a key/value mapping.
		AsMap() map[string]string

		sealed()
	}

	// GoTool is a Go program installed via a tools module.
	GoTool struct {
		PkgName    string
		ModulePath string
		PkgVersion string
	}

	// GoSubmodule is a Go program built from a git submodule.
	GoSubmodule struct {
		PkgName    string
		ModulePath string
		PkgVersion string
	}

	// RPM is an RPM package resolved by the lockfile.
	RPM struct {
		PkgName    string
		PkgVersion string
	}

	// LocalTool is a script kept under the local tools directory.
	LocalTool struct {
		PkgName    string
		PkgVersion string
		DirPath    string
	}

	// PipPackage is a Python package resolved by the requirements lock.
	PipPackage struct {
		PkgName    string
		PkgVersion string
	}

	// DuplicatePackageError is returned when two packages of one inventory share a name.
	DuplicatePackageError struct {
		Name  string
		First Kind
		Other Kind
	}
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// InstallMethod returns the display label for packages of this kind.
func (k Kind) InstallMethod() string {
	switch k {
	case KindGoTool:
		return "`go install`"
	case KindGoSubmodule:
		return "Go submodule"
	case KindRPM:
		return "RPM"
	case KindPip:
		return "pip"
	case KindLocalTool:
		return "Local script"
	default:
		return string(k)
	}
}

// Error implements the error interface.
func (e *DuplicatePackageError) Error() string {
	return fmt.Sprintf("package %q is declared twice (%s and %s)", e.Name, e.First, e.Other)
}

// Unwrap returns ErrDuplicatePackage for errors.Is() compatibility.
func (e *DuplicatePackageError) Unwrap() error { return ErrDuplicatePackage }

func (p GoTool) Name() string { return p.PkgName }
func (p GoTool) Version() string { return p.PkgVersion }
func (p GoTool) Kind() Kind { return KindGoTool }
func (p GoTool) InstallMethod() string { return KindGoTool.InstallMethod() }
func (p GoTool) sealed() {}

// AsMap implements Package.
func (p GoTool) AsMap() map[string]string {
	return map[string]string{
		"type":        string(KindGoTool),
		"name":        p.PkgName,
		"module_path": p.ModulePath,
		"version":     p.PkgVersion,
	}
}

func (p GoSubmodule) Name() string { return p.PkgName }
func (p GoSubmodule) Version() string { return p.PkgVersion }
func (p GoSubmodule) Kind() Kind { return KindGoSubmodule }
func (p GoSubmodule) InstallMethod() string { return KindGoSubmodule.InstallMethod() }
func (p GoSubmodule) sealed() {}

// AsMap implements Package.
func (p GoSubmodule) AsMap() map[string]string {
	return map[string]string{
		"type":        string(KindGoSubmodule),
		"name":        p.PkgName,
		"module_path": p.ModulePath,
		"version":     p.PkgVersion,
	}
}

func (p RPM) Name() string { return p.PkgName }
func (p RPM) Version() string { return p.PkgVersion }
func (p RPM) Kind() Kind { return KindRPM }
func (p RPM) InstallMethod() string { return KindRPM.InstallMethod() }
func (p RPM) sealed() {}

// AsMap implements Package.
func (p RPM) AsMap() map[string]string {
	return map[string]string{
		"type":    string(KindRPM),
		"name":    p.PkgName,
		"version": p.PkgVersion,
	}
}

func (p LocalTool) Name() string { return p.PkgName }
func (p LocalTool) Version() string { return p.PkgVersion }
func (p LocalTool) Kind() Kind { return KindLocalTool }
func (p LocalTool) InstallMethod() string { return KindLocalTool.InstallMethod() }
func (p LocalTool) sealed() {}

// AsMap implements Package.
func (p LocalTool) AsMap() map[string]string {
	return map[string]string{
		"type":     string(KindLocalTool),
		"name":     p.PkgName,
		"version":  p.PkgVersion,
		"dir_path": p.DirPath,
	}
}

func (p PipPackage) Name() string { return p.PkgName }
func (p PipPackage) Version() string { return p.PkgVersion }
func (p PipPackage) Kind() Kind { return KindPip }
func (p PipPackage) InstallMethod() string { return KindPip.InstallMethod() }
func (p PipPackage) sealed() {}

// AsMap implements Package.
func (p PipPackage) AsMap() map[string]string {
	return map[string]string{
		"type":    string(KindPip),
		"name":    p.PkgName,
		"version": p.PkgVersion,
	}
}

// Versions returns the name→version mapping of an inventory.
func Versions(pkgs []Package) map[string]string {
	out := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		out[p.Name()] = p.Version()
	}
	return out
}

// CheckUnique returns a *DuplicatePackageError for the first name that
// appears twice in pkgs.
func CheckUnique(pkgs []Package) error {
	seen := make(map[string]Kind, len(pkgs))
	for _, p := range pkgs {
		if first, ok := seen[p.Name()]; ok {
			return &DuplicatePackageError{Name: p.Name(), First: first, Other: p.Kind()}
		}
		seen[p.Name()] = p.Kind()
	}
	return nil
}

// SortByName returns a copy of pkgs sorted by name. The input is not modified.
func SortByName(pkgs []Package) []Package {
	sorted := make([]Package, len(pkgs))
	copy(sorted, pkgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name() < sorted[j].Name()
	})
	return sorted
}

// GoToolModulePaths returns the distinct module paths of all Go tools, in
// inventory order.
func GoToolModulePaths(pkgs []Package) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, p := range pkgs {
		tool, ok := p.(GoTool)
		if !ok || seen[tool.ModulePath] {
			continue
		}
		seen[tool.ModulePath] = true
		paths = append(paths, tool.ModulePath)
	}
	return paths
}
