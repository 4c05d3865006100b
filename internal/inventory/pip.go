// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/konflux-ci/task-runner/pkg/software"
)

const (
	pipInputFile = "requirements.in"
	pipLockFile  = "requirements.txt"
)

var (
	requirementName   = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	pinnedRequirement = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)(?:\[[^\]]*\])?\s*==\s*([^\s;\\]+)`)
	commentPattern    = regexp.MustCompile(`(^|\s+)#.*$`)
	nameSeparators    = regexp.MustCompile(`[-_.]+`)
)

// PipPackages lists the requirements declared in requirements.in at the
// versions pinned in requirements.txt. Names are matched after PEP 503
// normalization, so "Foo_Bar" in one file matches "foo-bar" in the other.
// A missing requirements.in means no pip packages.
func (c *Collector) PipPackages() ([]software.Package, error) {
	dir := c.path(c.paths.Pip)
	inPath := filepath.Join(dir, pipInputFile)

	inData, err := os.ReadFile(inPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("no pip requirements", "path", inPath)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lockPath := filepath.Join(dir, pipLockFile)
	lockData, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, fmt.Errorf("read pip lock file: %w", err)
	}
	pinned := parsePinned(string(lockData))

	var pkgs []software.Package
	for _, name := range parseRequirementNames(string(inData)) {
		ver, ok := pinned[normalizeRequirementName(name)]
		if !ok {
			return nil, &UnresolvedPackageError{Name: name, LockFile: lockPath}
		}
		pkgs = append(pkgs, software.PipPackage{PkgName: name, PkgVersion: ver})
	}
	return pkgs, nil
}

// parseRequirementNames returns the project names declared in a requirements
// input file, in order. Options (-r, -c, --index-url...), URLs and paths are
// skipped.
func parseRequirementNames(text string) []string {
	var names []string
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(commentPattern.ReplaceAllString(strings.TrimRight(line, "\r\n"), ""))
		if isNotRequirementLine(line) {
			continue
		}
		if name := requirementName.FindString(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parsePinned maps normalized names to versions from "name==version" lines
// of a compiled requirements file. Indented lines (hashes, "# via" notes)
// and continuation lines are skipped.
func parsePinned(text string) map[string]string {
	pinned := make(map[string]string)
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
			continue
		}
		m := pinnedRequirement.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pinned[normalizeRequirementName(m[1])] = m[2]
	}
	return pinned
}

// normalizeRequirementName applies PEP 503 name normalization and drops any
// extras.
func normalizeRequirementName(name string) string {
	name, _, _ = strings.Cut(name, "[")
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "-"))
}

func isNotRequirementLine(line string) bool {
	return line == "" ||
		strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "https://") ||
		strings.HasPrefix(line, "http://") ||
		strings.HasPrefix(line, ".") ||
		strings.HasPrefix(line, "/")
}
