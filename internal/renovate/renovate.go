// SPDX-License-Identifier: MPL-2.0

// Package renovate generates the Renovate bot configuration of the
// repository. The only input is the set of Go tool modules, so that Renovate
// updates the tools themselves but never their indirect dependencies.
package renovate

import (
	"encoding/json"
	"io"

	"github.com/konflux-ci/task-runner/pkg/software"
)

// SchemaURL is the JSON schema of the generated document.
const SchemaURL = "https://docs.renovatebot.com/renovate-schema.json"

type (
	// Config is the subset of the Renovate configuration schema used by the repository.
	Config struct {
		Schema            string        `json:"$schema"`
		Extends           []string      `json:"extends"`
		Schedule          []string      `json:"schedule"`
		PRHourlyLimit     int           `json:"prHourlyLimit"`
		GitSubmodules     ManagerToggle `json:"git-submodules"`
		PackageRules      []PackageRule `json:"packageRules"`
		PostUpdateOptions []string      `json:"postUpdateOptions"`
	}

	// ManagerToggle enables or disables a Renovate manager.
	ManagerToggle struct {
		Enabled bool `json:"enabled"`
	}

	// PackageRule is one entry of packageRules. Nil lists are omitted; an
	// empty non-nil list is written as [] and matches nothing.
	PackageRule struct {
		MatchManagers     []string `json:"matchManagers,omitzero"`
		MatchDatasources  []string `json:"matchDatasources,omitzero"`
		MatchPackageNames []string `json:"matchPackageNames,omitzero"`
		MatchFileNames    []string `json:"matchFileNames,omitzero"`
		Enabled           *bool    `json:"enabled,omitempty"`
		GroupName         string   `json:"groupName,omitempty"`
		Versioning        string   `json:"versioning,omitempty"`
		AllowedVersions   string   `json:"allowedVersions,omitempty"`
	}
)

// Generate builds the configuration for the given inventory. Only Go tools
// contribute; they are matched by module path.
func Generate(pkgs []software.Package) Config {
	modulePaths := software.GoToolModulePaths(pkgs)
	if modulePaths == nil {
		modulePaths = []string{}
	}

	return Config{
		Schema:        SchemaURL,
		Extends:       []string{"config:recommended", "helpers:pinGitHubActionDigestsToSemver"},
		Schedule:      []string{"* * * * *"},
		PRHourlyLimit: 0, // unlimited
		GitSubmodules: ManagerToggle{Enabled: true},
		PackageRules: []PackageRule{
			{
				MatchManagers: []string{"gomod"},
				Enabled:       ptr(false),
			},
			{
				// Indirect dependencies stay at the versions the tools were
				// released with; only the tools themselves are bumped.
				MatchManagers:     []string{"gomod"},
				MatchPackageNames: modulePaths,
				Enabled:           ptr(true),
				GroupName:         "Go tools",
			},
			{
				MatchDatasources: []string{"pypi"},
				GroupName:        "Python dependencies",
			},
			{
				MatchManagers: []string{"git-submodules"},
				GroupName:     "Git submodules",
			},
			{
				// oc has no semver tags
				MatchManagers:     []string{"git-submodules"},
				MatchPackageNames: []string{"https://github.com/openshift/oc.git"},
				Versioning:        `regex:^openshift-clients-(?<major>\d+)\.(?<minor>\d+)\.(?<patch>\d+)-(?<build>\d+)$`,
			},
			{
				MatchFileNames: []string{"Containerfile"},
				GroupName:      "Base images",
			},
			{
				// Follow Go version tags (1.x), not RHEL version tags (10.x)
				MatchPackageNames: []string{"registry.access.redhat.com/ubi10/go-toolset"},
				AllowedVersions:   "< 2.0",
			},
		},
		// go mod tidy raises indirect dependencies only when minimal version selection requires it
		PostUpdateOptions: []string{"gomodTidy"},
	}
}

// Write encodes cfg as indented JSON followed by a newline.
func Write(w io.Writer, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(cfg)
}

func ptr[T any](v T) *T { return &v }
