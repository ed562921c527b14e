// Package config parses and validates the workflow definition file
// (yabs.yaml by default): workflow-wide settings plus the ordered list of
// task declarations.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileVersionPrefix is the required prefix of the file_version field.
const FileVersionPrefix = "yabs#"

// Defaults applied after parsing.
const (
	DefaultTokenVar     = "GITHUB_OAUTH_TOKEN"
	DefaultMaxIncrement = "minor"
	DefaultArtifactDir  = "dist"
	DefaultPluginDir    = ".yabs/tasks"
)

// Load reads and parses a workflow definition from the given YAML file.
// After parsing it applies defaults, so callers never see empty settings
// that have a documented default.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if !strings.HasPrefix(wf.FileVersion, FileVersionPrefix) {
		return nil, fmt.Errorf("%s: file_version must start with %q (got %q)",
			path, FileVersionPrefix, wf.FileVersion)
	}

	applyDefaults(&wf)
	return &wf, nil
}

func applyDefaults(wf *Workflow) {
	c := &wf.Config
	if c.GHAuth.OAuthTokenVar == "" {
		c.GHAuth.OAuthTokenVar = DefaultTokenVar
	}
	if len(c.Branches) == 0 {
		c.Branches = StringList{"main", "master"}
	}
	if c.MaxIncrement == "" {
		c.MaxIncrement = DefaultMaxIncrement
	}
	if c.ArtifactDir == "" {
		c.ArtifactDir = DefaultArtifactDir
	}
	if c.PluginDir == "" {
		c.PluginDir = DefaultPluginDir
	}
	for i := range c.Version {
		if c.Version[i].Type == "" {
			c.Version[i].Type = "text"
		}
	}
}
