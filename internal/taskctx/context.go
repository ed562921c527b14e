// Package taskctx holds the mutable key-value store threaded through one
// pipeline execution. The runner owns the context exclusively; tasks read
// settings from it and publish results (new version, tag name, artifacts)
// for downstream tasks. It is discarded when the process exits.
package taskctx

import (
	"fmt"
)

// Well-known context keys written by built-in tasks.
const (
	KeyInc        = "inc"
	KeyDryRun     = "dry_run"
	KeyVerbose    = "verbose"
	KeyForce      = "force"
	KeyNoRelease  = "no_release"
	KeyRepo       = "repo"
	KeyRepoShort  = "repo_short"
	KeyOrgVersion = "org_version"
	KeyVersion    = "version"
	KeyOrgTagName = "org_tag_name"
	KeyTagName    = "tag_name"
)

// Context is an ordered mapping from variable name to value. Lookup is by
// key; insertion order is preserved for reporting.
type Context struct {
	keys      []string
	values    map[string]any
	artifacts map[string]string
	artOrder  []string
	notes     []string
}

// New returns an empty context.
func New() *Context {
	return &Context{values: make(map[string]any), artifacts: make(map[string]string)}
}

// Set stores a value, keeping the key's original position if it already
// exists.
func (c *Context) Set(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the raw value for key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the value for key rendered as a string, or "" when absent.
func (c *Context) String(key string) string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Bool returns the value for key as a bool, false when absent or not a bool.
func (c *Context) Bool(key string) bool {
	v, _ := c.values[key].(bool)
	return v
}

// Keys returns all keys in insertion order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Vars flattens the context into the string map used for template
// expansion.
func (c *Context) Vars() map[string]string {
	vars := make(map[string]string, len(c.keys))
	for _, k := range c.keys {
		vars[k] = c.String(k)
	}
	return vars
}

// AddArtifact records a built artifact path under its kind (e.g. "sdist").
// A kind recorded twice keeps the latest path.
func (c *Context) AddArtifact(kind, path string) {
	if _, ok := c.artifacts[kind]; !ok {
		c.artOrder = append(c.artOrder, kind)
	}
	c.artifacts[kind] = path
}

// Artifacts returns a copy of the recorded artifacts.
func (c *Context) Artifacts() map[string]string {
	out := make(map[string]string, len(c.artifacts))
	for k, v := range c.artifacts {
		out[k] = v
	}
	return out
}

// ArtifactKinds returns recorded artifact kinds in insertion order.
func (c *Context) ArtifactKinds() []string {
	out := make([]string, len(c.artOrder))
	copy(out, c.artOrder)
	return out
}

// AddNote records a summary line (published URL, degraded result) for the
// final report.
func (c *Context) AddNote(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

// Notes returns the recorded summary lines.
func (c *Context) Notes() []string {
	out := make([]string, len(c.notes))
	copy(out, c.notes)
	return out
}
