// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/konflux-ci/task-runner/pkg/software"
)

var versionAssignment = regexp.MustCompile(`(?m)^\s*(?:readonly\s+|export\s+)?(VERSION=\S*)`)

// LocalTools lists the scripts under the local tools path. Every tool
// directory must hold a script named after it (retry/retry.sh) declaring
// its version in a VERSION= assignment.
func (c *Collector) LocalTools() ([]software.Package, error) {
	dirs, err := c.subdirs(c.path(c.paths.LocalTools))
	if err != nil {
		return nil, err
	}

	var pkgs []software.Package
	for _, dir := range dirs {
		name := filepath.Base(dir)
		script := filepath.Join(dir, name+".sh")

		data, err := os.ReadFile(script)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingScriptError{Path: script}
		}
		if err != nil {
			return nil, err
		}

		ver, ok := scriptVersion(string(data))
		if !ok {
			return nil, &MissingVersionDeclarationError{Path: script}
		}

		rel, err := filepath.Rel(c.root, dir)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, software.LocalTool{
			PkgName:    name,
			PkgVersion: ver,
			DirPath:    filepath.ToSlash(rel),
		})
	}
	return pkgs, nil
}

// scriptVersion finds the first VERSION= assignment in a shell script and
// returns its value with shell quoting removed. The pattern locates the line;
// the value comes from the parsed script so quoted values may hold spaces.
func scriptVersion(script string) (string, bool) {
	m := versionAssignment.FindStringSubmatchIndex(script)
	if m == nil {
		return "", false
	}
	line := uint(strings.Count(script[:m[2]], "\n") + 1)

	ver, ok := parsedAssignment(script, line)
	if !ok {
		ver = trimQuotes(strings.TrimPrefix(script[m[2]:m[3]], "VERSION="))
	}
	return ver, ver != ""
}

// parsedAssignment evaluates the VERSION assignment starting on line without
// performing any expansion beyond quote removal. It reports false when the
// script does not parse or the value is not a literal.
func parsedAssignment(script string, line uint) (string, bool) {
	f, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		return "", false
	}

	var assign *syntax.Assign
	syntax.Walk(f, func(node syntax.Node) bool {
		if assign != nil {
			return false
		}
		if as, ok := node.(*syntax.Assign); ok && as.Name != nil && as.Name.Value == "VERSION" && as.Pos().Line() == line {
			assign = as
			return false
		}
		return true
	})
	if assign == nil {
		return "", false
	}
	if assign.Value == nil {
		return "", true
	}

	v, err := expand.Literal(&expand.Config{Env: expand.ListEnviron()}, assign.Value)
	if err != nil {
		return "", false
	}
	return v, true
}

func trimQuotes(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	return raw
}
