// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/konflux-ci/task-runner/internal/git"
	"github.com/konflux-ci/task-runner/pkg/software"
)

const submoduleRemote = "origin"

var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GoSubmodules lists the Go projects vendored as git submodules. Each is
// versioned by the first tag at its checked-out commit that contains a
// MAJOR.MINOR.PATCH number.
//
// When the checkout has no local tags the remote is asked for tags at the
// same commit, and any it reports are fetched so later runs find them locally.
func (c *Collector) GoSubmodules(ctx context.Context) ([]software.Package, error) {
	dirs, err := c.subdirs(c.path(c.paths.GoSubmodules))
	if err != nil {
		return nil, fmt.Errorf("list go submodules: %w", err)
	}

	var pkgs []software.Package
	for _, dir := range dirs {
		tags, err := c.submoduleTags(ctx, git.New(c.run, dir))
		if err != nil {
			return nil, err
		}
		if len(tags) == 0 {
			return nil, &NoVersionTagError{Dir: dir}
		}

		var ver string
		for _, tag := range tags {
			if m := semverPattern.FindString(tag); m != "" {
				ver = m
				break
			}
		}
		if ver == "" {
			return nil, &NoSemverTagError{Dir: dir, Tags: tags}
		}

		base := filepath.Base(dir)
		name := base
		if renamed, ok := c.renames[base]; ok {
			name = renamed
		}
		rel, err := filepath.Rel(c.root, dir)
		if err != nil {
			return nil, err
		}

		pkgs = append(pkgs, software.GoSubmodule{
			PkgName:    name,
			ModulePath: "./" + filepath.ToSlash(rel),
			PkgVersion: ver,
		})
	}
	return pkgs, nil
}

func (c *Collector) submoduleTags(ctx context.Context, g *git.Client) ([]string, error) {
	tags, err := g.TagsPointingAt(ctx, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("list tags of %s: %w", g.Dir(), err)
	}
	if len(tags) > 0 {
		return tags, nil
	}

	head, err := g.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD of %s: %w", g.Dir(), err)
	}
	remoteTags, err := g.RemoteTags(ctx, submoduleRemote)
	if err != nil {
		return nil, fmt.Errorf("list remote tags of %s: %w", g.Dir(), err)
	}

	for _, rt := range remoteTags {
		if rt.Commit != head {
			continue
		}
		c.logger.Info("fetching submodule tag", "dir", g.Dir(), "tag", rt.Name)
		if err := g.FetchTag(ctx, submoduleRemote, rt.Name); err != nil {
			return nil, err
		}
		tags = append(tags, rt.Name)
	}
	return tags, nil
}
