package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Workflow is the top-level structure parsed from a yabs.yaml file.
type Workflow struct {
	FileVersion string     `yaml:"file_version"`
	Config      Config     `yaml:"config"`
	Tasks       []TaskDecl `yaml:"tasks"`
}

// Config holds the workflow-wide settings shared by all tasks.
type Config struct {
	Repo         string          `yaml:"repo"`
	GHAuth       GHAuth          `yaml:"gh_auth"`
	Branches     StringList      `yaml:"branches"`
	MaxIncrement string          `yaml:"max_increment"`
	Version      []VersionSource `yaml:"version"`
	PluginDir    string          `yaml:"plugin_dir"`
	ArtifactDir  string          `yaml:"artifact_dir"`
}

// RepoShort returns the project part of an OWNER/PROJECT repo name.
func (c Config) RepoShort() string {
	for i := len(c.Repo) - 1; i >= 0; i-- {
		if c.Repo[i] == '/' {
			return c.Repo[i+1:]
		}
	}
	return c.Repo
}

// GHAuth configures how the GitHub token is obtained. In YAML it is either
// a plain scalar (the environment variable name) or a mapping with an
// oauth_token_var key.
type GHAuth struct {
	OAuthTokenVar string `yaml:"oauth_token_var"`
}

func (a *GHAuth) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&a.OAuthTokenVar)
	case yaml.MappingNode:
		type plain GHAuth
		return node.Decode((*plain)(a))
	}
	return fmt.Errorf("gh_auth: expected a string or mapping, got %s", nodeKind(node))
}

// VersionSource locates the project version inside one file. The first
// source listed in the config is the master copy; further sources are kept
// in sync with it.
type VersionSource struct {
	Type     string `yaml:"type"`
	File     string `yaml:"file"`
	Match    string `yaml:"match"`
	Template string `yaml:"template"`
	Entry    string `yaml:"entry"`
}

// StringList accepts either a single YAML scalar or a sequence of scalars.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := node.Decode(&ss); err != nil {
			return err
		}
		*l = StringList(ss)
		return nil
	}
	return fmt.Errorf("expected a string or list of strings, got %s", nodeKind(node))
}

// Contains reports whether the list holds s.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// TaskDecl is one entry of the tasks list. The task key names the task
// type; every other key is an option interpreted by that task.
type TaskDecl struct {
	Type    string
	Options map[string]any
	Line    int
}

func (t *TaskDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: task entry must be a mapping, got %s", node.Line, nodeKind(node))
	}
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	typ, ok := raw["task"]
	if !ok {
		return fmt.Errorf("line %d: task entry is missing the task key", node.Line)
	}
	name, ok := typ.(string)
	if !ok || name == "" {
		return fmt.Errorf("line %d: task key must be a non-empty string", node.Line)
	}
	delete(raw, "task")
	t.Type = name
	t.Options = raw
	t.Line = node.Line
	return nil
}

// Has reports whether the option is present at all, even with a null value.
func (t TaskDecl) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Str returns a string option; missing or null yields the fallback.
func (t TaskDecl) Str(key, fallback string) string {
	v, ok := t.Options[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a boolean option; missing, null, or non-bool yields the
// fallback.
func (t TaskDecl) Bool(key string, fallback bool) bool {
	v, ok := t.Options[key]
	if !ok || v == nil {
		return fallback
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// Int returns an integer option; missing, null, or non-int yields the
// fallback.
func (t TaskDecl) Int(key string, fallback int) int {
	v, ok := t.Options[key]
	if !ok || v == nil {
		return fallback
	}
	if n, ok := v.(int); ok {
		return n
	}
	return fallback
}

// List returns an option that may be written as a scalar or a sequence;
// missing or null yields nil.
func (t TaskDecl) List(key string) []string {
	v, ok := t.Options[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	}
	return "document"
}
