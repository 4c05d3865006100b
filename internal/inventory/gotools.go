// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/konflux-ci/task-runner/pkg/software"
)

var majorVersionSegment = regexp.MustCompile(`^v\d+$`)

type (
	// goModJSON is the subset of "go mod edit -json" output the collector reads.
	goModJSON struct {
		Require []goModRequire
		Tool    []goModTool
	}

	goModRequire struct {
		Path    string
		Version string
	}

	goModTool struct {
		Path string
	}
)

// GoTools lists the tools declared by the go.mod of every directory under
// the Go tools path. Each tool is versioned by the longest require entry
// that owns its package path.
func (c *Collector) GoTools(ctx context.Context) ([]software.Package, error) {
	dirs, err := c.subdirs(c.path(c.paths.GoTools))
	if err != nil {
		return nil, fmt.Errorf("list go tools: %w", err)
	}

	var pkgs []software.Package
	for _, dir := range dirs {
		out, err := c.run.Output(ctx, dir, "go", "mod", "edit", "-json")
		if err != nil {
			return nil, fmt.Errorf("read go.mod in %s: %w", dir, err)
		}

		var mod goModJSON
		if err := json.Unmarshal([]byte(out), &mod); err != nil {
			return nil, fmt.Errorf("decode go.mod in %s: %w", dir, err)
		}

		for _, tool := range mod.Tool {
			parent, ok := parentModule(tool.Path, mod.Require)
			if !ok {
				return nil, &MissingParentModuleError{ToolPath: tool.Path, Dir: dir}
			}
			pkgs = append(pkgs, software.GoTool{
				PkgName:    toolName(tool.Path),
				ModulePath: parent.Path,
				PkgVersion: strings.TrimPrefix(parent.Version, "v"),
			})
		}
	}
	return pkgs, nil
}

// parentModule finds the longest require path equal to pkgPath or a path
// prefix of it.
func parentModule(pkgPath string, requires []goModRequire) (goModRequire, bool) {
	var (
		best  goModRequire
		found bool
	)
	for _, r := range requires {
		if pkgPath != r.Path && !strings.HasPrefix(pkgPath, r.Path+"/") {
			continue
		}
		if !found || len(r.Path) > len(best.Path) {
			best, found = r, true
		}
	}
	return best, found
}

// toolName is the last segment of pkgPath, or the one before it when the
// last is a major version suffix such as "v2".
func toolName(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	if len(parts) > 1 && majorVersionSegment.MatchString(parts[len(parts)-1]) {
		return parts[len(parts)-2]
	}
	return parts[len(parts)-1]
}
