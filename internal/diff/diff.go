// SPDX-License-Identifier: MPL-2.0

package diff

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sassoftware/go-rpmutils"

	"github.com/konflux-ci/task-runner/internal/git"
	"github.com/konflux-ci/task-runner/internal/mdtable"
	"github.com/konflux-ci/task-runner/internal/version"
	"github.com/konflux-ci/task-runner/pkg/software"
)

const (
	// DefaultInventoryFile is the inventory document path relative to the repository root.
	DefaultInventoryFile = "Installed-Software.md"

	// DefaultUpstreamRepository identifies the upstream remote by URL substring.
	DefaultUpstreamRepository = "konflux-ci/task-runner"

	// DefaultUpstreamURL is suggested when no upstream remote is configured.
	DefaultUpstreamURL = "https://github.com/konflux-ci/task-runner.git"
)

// ErrNoUpstreamRemote is returned when a version tag must be fetched but no
// remote points at the upstream repository.
var ErrNoUpstreamRemote = errors.New("no upstream remote")

// Direction values of ChangedPackage.Direction.
const (
	DirectionNone      Direction = ""
	DirectionUpgrade   Direction = "upgrade"
	DirectionDowngrade Direction = "downgrade"
)

type (
	// Direction tells whether a version moved forward or backward.
	Direction string

	// Lister produces the live inventory.
	Lister interface {
		List(ctx context.Context) ([]software.Package, error)
	}

	// ChangedPackage is a package whose version differs between two
	// inventories. An empty version means the package is absent on that side.
	ChangedPackage struct {
		Name       string
		OldVersion string
		NewVersion string
	}

	// NoUpstreamRemoteError names the repository that no remote matched.
	NoUpstreamRemoteError struct {
		Repository string
		URL        string
	}

	// Option configures a Differ.
	Option func(*Differ)

	// Differ computes inventory changes for one repository.
	Differ struct {
		git           *git.Client
		live          Lister
		inventoryFile string
		upstreamRepo  string
		upstreamURL   string
		logger        *log.Logger
	}
)

// Error implements the error interface.
func (e *NoUpstreamRemoteError) Error() string {
	return fmt.Sprintf("no remote found for %s, run 'git remote add upstream %s'", e.Repository, e.URL)
}

// Unwrap returns ErrNoUpstreamRemote for errors.Is() compatibility.
func (e *NoUpstreamRemoteError) Unwrap() error { return ErrNoUpstreamRemote }

// Change classifies the transition.
func (c ChangedPackage) Change() (version.ChangeType, error) {
	return version.Classify(c.OldVersion, c.NewVersion)
}

// Direction compares the two versions with RPM version ordering. Added and
// removed packages have no direction.
func (c ChangedPackage) Direction() Direction {
	if c.OldVersion == "" || c.NewVersion == "" {
		return DirectionNone
	}
	switch rpmutils.Vercmp(c.NewVersion, c.OldVersion) {
	case 1:
		return DirectionUpgrade
	case -1:
		return DirectionDowngrade
	default:
		return DirectionNone
	}
}

// WithInventoryFile sets the inventory document path read at each ref.
func WithInventoryFile(path string) Option {
	return func(d *Differ) {
		d.inventoryFile = path
	}
}

// WithUpstream sets the repository substring that identifies the upstream
// remote and the URL suggested when it is missing.
func WithUpstream(repository, url string) Option {
	return func(d *Differ) {
		d.upstreamRepo = repository
		d.upstreamURL = url
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(d *Differ) {
		d.logger = logger
	}
}

// New creates a Differ reading history through g and the working tree through live.
func New(g *git.Client, live Lister, opts ...Option) *Differ {
	d := &Differ{
		git:           g,
		live:          live,
		inventoryFile: DefaultInventoryFile,
		upstreamRepo:  DefaultUpstreamRepository,
		upstreamURL:   DefaultUpstreamURL,
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff returns the packages that changed from baseRef to headRef, sorted by
// name. An empty headRef compares against the live inventory.
func (d *Differ) Diff(ctx context.Context, baseRef, headRef string) ([]ChangedPackage, error) {
	oldVersions, err := d.versionsAt(ctx, baseRef)
	if err != nil {
		return nil, err
	}

	var newVersions map[string]string
	if headRef != "" {
		newVersions, err = d.versionsAt(ctx, headRef)
	} else {
		newVersions, err = d.liveVersions(ctx)
	}
	if err != nil {
		return nil, err
	}

	return Compare(oldVersions, newVersions), nil
}

// Compare returns the names whose versions differ between the two mappings,
// sorted by name.
func Compare(oldVersions, newVersions map[string]string) []ChangedPackage {
	names := make(map[string]struct{}, len(oldVersions)+len(newVersions))
	for name := range oldVersions {
		names[name] = struct{}{}
	}
	for name := range newVersions {
		names[name] = struct{}{}
	}

	var changed []ChangedPackage
	for name := range names {
		oldV, newV := oldVersions[name], newVersions[name]
		if oldV != newV {
			changed = append(changed, ChangedPackage{Name: name, OldVersion: oldV, NewVersion: newV})
		}
	}
	slices.SortFunc(changed, func(a, b ChangedPackage) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return changed
}

func (d *Differ) versionsAt(ctx context.Context, ref string) (map[string]string, error) {
	if err := d.fetchVersionTagIfNeeded(ctx, ref); err != nil {
		return nil, err
	}
	text, err := d.git.Show(ctx, ref, d.inventoryFile)
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", d.inventoryFile, ref, err)
	}
	return mdtable.ParsePackages(text), nil
}

func (d *Differ) liveVersions(ctx context.Context) (map[string]string, error) {
	pkgs, err := d.live.List(ctx)
	if err != nil {
		return nil, err
	}
	return software.Versions(pkgs), nil
}

// fetchVersionTagIfNeeded fetches ref from the upstream remote when it looks
// like a release tag that the local repository does not have yet.
func (d *Differ) fetchVersionTagIfNeeded(ctx context.Context, ref string) error {
	if !version.IsTag(ref) {
		return nil
	}
	ok, err := d.git.HasRef(ctx, ref)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	remote, err := d.upstreamRemote(ctx)
	if err != nil {
		return err
	}
	d.logger.Info("fetching release tag", "tag", ref, "remote", remote)
	return d.git.FetchTag(ctx, remote, ref)
}

func (d *Differ) upstreamRemote(ctx context.Context) (string, error) {
	remotes, err := d.git.Remotes(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range remotes {
		if strings.Contains(r.URL, d.upstreamRepo) {
			return r.Name, nil
		}
	}
	return "", &NoUpstreamRemoteError{Repository: d.upstreamRepo, URL: d.upstreamURL}
}
