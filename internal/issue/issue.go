// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Catalog entries. Zero means "no guide".
const (
	ConfigLoadFailedId Id = iota + 1
	NotAGitRepositoryId
	CommandFailedId
	MissingParentModuleId
	SubmoduleVersionId
	RPMVersionMismatchId
	UnresolvedPipPackageId
	MalformedLocalToolId
	DuplicatePackageId
	NoUpstreamRemoteId
	InvalidVersionId
	ContainerEngineNotFoundId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of a guide.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a remediation guide rendered to the terminal when the
	// corresponding failure reaches the user.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw guide.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guide with the named glamour style ("dark", "light",
// "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the devtool configuration!

## Configuration files (first found wins):
1. the file passed with ` + "`--config`" + `
2. ` + "`devtool.cue`" + ` at the repository root
3. ` + "`$XDG_CONFIG_HOME/devtool/config.cue`" + `

## Things you can try:
- Check the CUE syntax of the file
- Compare it with the defaults:
~~~
$ devtool config dump
~~~

- Start over from a fresh file:
~~~
$ devtool config init --force
~~~`,
	}

	notAGitRepositoryIssue = &Issue{
		id: NotAGitRepositoryId,
		mdMsg: `
# Not inside a git checkout!

The devtool locates the repository root with ` + "`git rev-parse --show-toplevel`" + `.

## Things you can try:
- Run the command from inside your task-runner clone
- Or pass the root explicitly:
~~~
$ devtool --root /path/to/task-runner ls
~~~`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# An external command failed!

The devtool shells out to ` + "`git`" + ` and ` + "`go`" + ` to inspect the repository.
The failing command and its error output are shown above.

## Things you can try:
- Check that ` + "`git`" + ` and ` + "`go`" + ` are installed and in your PATH
- Make sure submodules are checked out:
~~~
$ git submodule update --init
~~~

- Re-run with ` + "`--verbose`" + ` to see every command the devtool runs`,
	}

	missingParentModuleIssue = &Issue{
		id: MissingParentModuleId,
		mdMsg: `
# A Go tool has no parent module!

A ` + "`tool`" + ` directive in one of the ` + "`deps/go-tools/*/go.mod`" + ` files names a package
that no ` + "`require`" + ` line provides, so its version cannot be determined.

## Things you can try:
- Add the tool with the go command, which records both directives:
~~~
$ cd deps/go-tools/<tool>
$ go get -tool <package>@<version>
~~~`,
	}

	submoduleVersionIssue = &Issue{
		id: SubmoduleVersionId,
		mdMsg: `
# A Go submodule is not checked out at a release tag!

Submodule versions come from the tags pointing at the checked-out commit.
At least one of them must contain a ` + "`MAJOR.MINOR.PATCH`" + ` number.

## Things you can try:
- Fetch the tags of the submodule and check out a release:
~~~
$ cd deps/go-submodules/<name>
$ git fetch --tags origin
$ git checkout v1.2.3
~~~`,
	}

	rpmVersionMismatchIssue = &Issue{
		id: RPMVersionMismatchId,
		mdMsg: `
# RPM versions differ between architectures!

Every package in ` + "`deps/rpm/rpms.in.yaml`" + ` must resolve to the same
epoch:version-release on every architecture of ` + "`deps/rpm/rpms.lock.yaml`" + `.

## Things you can try:
- Regenerate the lockfile once all architectures carry the same build:
~~~
$ rpm-lockfile-prototype deps/rpm/rpms.in.yaml
~~~

- Check that the package is available for every architecture listed in ` + "`arches`",
	}

	unresolvedPipPackageIssue = &Issue{
		id: UnresolvedPipPackageId,
		mdMsg: `
# A pip requirement is not pinned!

A package listed in ` + "`deps/pip/requirements.in`" + ` has no ` + "`name==version`" + ` line in
` + "`deps/pip/requirements.txt`" + `.

## Things you can try:
- Recompile the pinned requirements:
~~~
$ pip-compile --generate-hashes deps/pip/requirements.in
~~~`,
	}

	malformedLocalToolIssue = &Issue{
		id: MalformedLocalToolId,
		mdMsg: `
# A local tool is malformed!

Every directory under ` + "`local-tools/`" + ` must contain a script named after it
(` + "`local-tools/retry/retry.sh`" + `) that declares its version:
~~~bash
VERSION=1.0.0
~~~`,
	}

	duplicatePackageIssue = &Issue{
		id: DuplicatePackageId,
		mdMsg: `
# Two packages share a name!

Package names must be unique across Go tools, submodules, RPMs, pip packages
and local tools, because the inventory is keyed by name.

## Things you can try:
- Rename one of the local tools or submodules
- Drop the redundant installation method`,
	}

	noUpstreamRemoteIssue = &Issue{
		id: NoUpstreamRemoteId,
		mdMsg: `
# No upstream remote!

Comparing against a release tag that is not present locally requires fetching
it from the upstream repository, but none of your remotes points there.

## Things you can try:
- Add the upstream remote:
~~~
$ git remote add upstream https://github.com/konflux-ci/task-runner.git
~~~`,
	}

	invalidVersionIssue = &Issue{
		id: InvalidVersionId,
		mdMsg: `
# A version could not be classified!

Change classification needs versions of the form ` + "`MAJOR.MINOR[.PATCH...]`" + `.

## Things you can try:
- Use ` + "`devtool diff --format json`" + ` to see the raw versions
- Check the package's entry in ` + "`Installed-Software.md`",
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine found!

The image tests need podman or docker.

## Things you can try:
- Install podman: <https://podman.io/docs/installation>
- Or select docker in ` + "`devtool.cue`" + `:
~~~cue
container: engine: "docker"
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		notAGitRepositoryIssue.Id():       notAGitRepositoryIssue,
		commandFailedIssue.Id():           commandFailedIssue,
		missingParentModuleIssue.Id():     missingParentModuleIssue,
		submoduleVersionIssue.Id():        submoduleVersionIssue,
		rpmVersionMismatchIssue.Id():      rpmVersionMismatchIssue,
		unresolvedPipPackageIssue.Id():    unresolvedPipPackageIssue,
		malformedLocalToolIssue.Id():      malformedLocalToolIssue,
		duplicatePackageIssue.Id():        duplicatePackageIssue,
		noUpstreamRemoteIssue.Id():        noUpstreamRemoteIssue,
		invalidVersionIssue.Id():          invalidVersionIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	all := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		all = append(all, i)
	}
	slices.SortFunc(all, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return all
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
