// SPDX-License-Identifier: MPL-2.0

package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/konflux-ci/task-runner/internal/runner"
)

type (
	// Client runs git commands in a fixed repository directory.
	Client struct {
		run runner.Runner
		dir string
	}

	// Remote is one configured remote. A remote with differing fetch and push
	// URLs is listed once per URL.
	Remote struct {
		Name string
		URL  string
	}

	// RemoteTag is a tag advertised by a remote, with the commit it peels to.
	RemoteTag struct {
		Name   string
		Commit string
	}
)

// New creates a Client for the repository (or submodule checkout) at dir.
func New(run runner.Runner, dir string) *Client {
	return &Client{run: run, dir: dir}
}

// Dir returns the directory the client runs in.
func (c *Client) Dir() string { return c.dir }

func (c *Client) git(ctx context.Context, args ...string) (string, error) {
	return c.run.Output(ctx, c.dir, "git", args...)
}

// Show returns the content of path as of ref.
func (c *Client) Show(ctx context.Context, ref, path string) (string, error) {
	return c.git(ctx, "show", ref+":"+path)
}

// HasRef reports whether ref resolves in the local repository. A git failure
// other than the ref being unknown is returned as an error.
func (c *Client) HasRef(ctx context.Context, ref string) (bool, error) {
	_, err := c.git(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err == nil {
		return true, nil
	}
	var execErr *runner.ExecError
	if errors.As(err, &execErr) && execErr.ExitCode == 1 {
		return false, nil
	}
	return false, err
}

// Head returns the commit hash checked out in the client's directory.
func (c *Client) Head(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TopLevel returns the root of the working tree containing the client's directory.
func (c *Client) TopLevel(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TagsPointingAt lists local tags that point at rev, in git's order.
func (c *Client) TagsPointingAt(ctx context.Context, rev string) ([]string, error) {
	out, err := c.git(ctx, "tag", "--points-at="+rev)
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// Remotes lists the configured remotes as reported by "git remote -v".
func (c *Client) Remotes(ctx context.Context) ([]Remote, error) {
	out, err := c.git(ctx, "remote", "-v")
	if err != nil {
		return nil, err
	}

	var remotes []Remote
	for line := range strings.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		r := Remote{Name: fields[0], URL: fields[1]}
		if len(remotes) > 0 && remotes[len(remotes)-1] == r {
			continue
		}
		remotes = append(remotes, r)
	}
	return remotes, nil
}

// RemoteTags lists the tags advertised by remote. Annotated tags are
// reported once with the commit they peel to.
func (c *Client) RemoteTags(ctx context.Context, remote string) ([]RemoteTag, error) {
	out, err := c.git(ctx, "ls-remote", "--tags", remote)
	if err != nil {
		return nil, err
	}

	var (
		tags  []RemoteTag
		index = make(map[string]int)
	)
	for line := range strings.Lines(out) {
		commit, ref, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(ref, "refs/tags/")
		if !ok {
			continue
		}
		name, peeled := strings.CutSuffix(name, "^{}")
		if i, seen := index[name]; seen {
			if peeled {
				tags[i].Commit = commit
			}
			continue
		}
		index[name] = len(tags)
		tags = append(tags, RemoteTag{Name: name, Commit: commit})
	}
	return tags, nil
}

// FetchTag fetches a single tag from remote into the local tag namespace.
func (c *Client) FetchTag(ctx context.Context, remote, tag string) error {
	refspec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)
	if _, err := c.git(ctx, "fetch", remote, refspec); err != nil {
		return fmt.Errorf("fetch tag %s from %s: %w", tag, remote, err)
	}
	return nil
}
