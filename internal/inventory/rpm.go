// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/konflux-ci/task-runner/pkg/software"
)

const (
	rpmsInFile   = "rpms.in.yaml"
	rpmsLockFile = "rpms.lock.yaml"
)

type (
	// rpmsIn is the declarative package list consumed by the lockfile generator.
	rpmsIn struct {
		Packages          []rpmName `yaml:"packages"`
		ReinstallPackages []rpmName `yaml:"reinstallPackages"`
		UpdatePackages    []rpmName `yaml:"updatePackages"`
		Arches            []string  `yaml:"arches"`
	}

	// rpmName accepts both a bare package name and the {name: ..., arches: [...]} form.
	rpmName string

	rpmsLock struct {
		Arches []rpmsLockArch `yaml:"arches"`
	}

	rpmsLockArch struct {
		Arch     string            `yaml:"arch"`
		Packages []rpmsLockPackage `yaml:"packages"`
	}

	rpmsLockPackage struct {
		Name string `yaml:"name"`
		EVR  string `yaml:"evr"`
	}
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *rpmName) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*n = rpmName(node.Value)
		return nil
	case yaml.MappingNode:
		var entry struct {
			Name string `yaml:"name"`
		}
		if err := node.Decode(&entry); err != nil {
			return err
		}
		if entry.Name == "" {
			return fmt.Errorf("line %d: package entry has no name", node.Line)
		}
		*n = rpmName(entry.Name)
		return nil
	default:
		return fmt.Errorf("line %d: package entry must be a name or a mapping", node.Line)
	}
}

// RPMs lists the RPMs declared in rpms.in.yaml at the EVR resolved for them
// in rpms.lock.yaml. The EVR must be identical on every locked architecture;
// the reported version drops the epoch. Excluded build-only RPMs are skipped.
// A repository without an RPM directory has no RPMs.
func (c *Collector) RPMs() ([]software.Package, error) {
	dir := c.path(c.paths.RPM)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("source directory not found", "dir", dir)
		return nil, nil
	}

	var in rpmsIn
	if err := readYAML(filepath.Join(dir, rpmsInFile), &in); err != nil {
		return nil, err
	}
	var lock rpmsLock
	if err := readYAML(filepath.Join(dir, rpmsLockFile), &lock); err != nil {
		return nil, err
	}

	declared := make([]rpmName, 0, len(in.Packages)+len(in.ReinstallPackages)+len(in.UpdatePackages))
	declared = append(declared, in.Packages...)
	declared = append(declared, in.ReinstallPackages...)
	declared = append(declared, in.UpdatePackages...)

	var pkgs []software.Package
	for _, n := range declared {
		name := string(n)
		if c.rpmExclude[name] {
			continue
		}
		evr, err := resolveEVR(name, lock.Arches)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, software.RPM{PkgName: name, PkgVersion: stripEpoch(evr)})
	}
	return pkgs, nil
}

// resolveEVR returns the single EVR name is locked at across all architectures.
func resolveEVR(name string, arches []rpmsLockArch) (string, error) {
	evrs := make(map[string]string, len(arches))
	for _, arch := range arches {
		evrs[arch.Arch] = ""
		for _, p := range arch.Packages {
			if p.Name == name {
				evrs[arch.Arch] = p.EVR
				break
			}
		}
	}

	var evr string
	for _, e := range evrs {
		if e == "" || (evr != "" && e != evr) {
			return "", &VersionMismatchError{Name: name, EVRs: evrs}
		}
		evr = e
	}
	if evr == "" {
		return "", &VersionMismatchError{Name: name, EVRs: evrs}
	}
	return evr, nil
}

func stripEpoch(evr string) string {
	if i := strings.LastIndex(evr, ":"); i >= 0 {
		return evr[i+1:]
	}
	return evr
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
