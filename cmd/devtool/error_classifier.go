// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/konflux-ci/task-runner/internal/container"
	"github.com/konflux-ci/task-runner/internal/diff"
	"github.com/konflux-ci/task-runner/internal/inventory"
	"github.com/konflux-ci/task-runner/internal/issue"
	"github.com/konflux-ci/task-runner/internal/runner"
	"github.com/konflux-ci/task-runner/internal/version"
	"github.com/konflux-ci/task-runner/pkg/software"
)

// ErrNotAGitRepository is returned when no --root is given and the working
// directory is outside a git checkout.
var ErrNotAGitRepository = errors.New("not inside a git repository")

// classifyError maps failures to issue catalog IDs and returns a styled
// message for CLI rendering.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, ErrNotAGitRepository):
		issueID = issue.NotAGitRepositoryId
	case errors.Is(err, inventory.ErrMissingParentModule):
		issueID = issue.MissingParentModuleId
	case errors.Is(err, inventory.ErrNoVersionTag), errors.Is(err, inventory.ErrNoSemverTag):
		issueID = issue.SubmoduleVersionId
	case errors.Is(err, inventory.ErrVersionMismatch):
		issueID = issue.RPMVersionMismatchId
	case errors.Is(err, inventory.ErrUnresolvedPackage):
		issueID = issue.UnresolvedPipPackageId
	case errors.Is(err, inventory.ErrMissingScript), errors.Is(err, inventory.ErrMissingVersionDeclaration):
		issueID = issue.MalformedLocalToolId
	case errors.Is(err, software.ErrDuplicatePackage):
		issueID = issue.DuplicatePackageId
	case errors.Is(err, diff.ErrNoUpstreamRemote):
		issueID = issue.NoUpstreamRemoteId
	case errors.Is(err, version.ErrInvalidVersion):
		issueID = issue.InvalidVersionId
	case errors.Is(err, container.ErrEngineNotAvailable):
		issueID = issue.ContainerEngineNotFoundId
	case errors.Is(err, runner.ErrExec):
		issueID = issue.CommandFailedId
	default:
		var ae *issue.ActionableError
		if errors.As(err, &ae) && strings.HasSuffix(ae.Operation, "configuration") {
			issueID = issue.ConfigLoadFailedId
		}
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay uses ActionableError.Format when available; verbose
// mode adds the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	if verbose {
		var execErr *runner.ExecError
		if errors.As(err, &execErr) && execErr.Stderr != "" {
			return err.Error() + "\n\n" + strings.TrimRight(execErr.Stderr, "\n")
		}
	}
	return err.Error()
}
