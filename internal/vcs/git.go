// Package vcs wraps the git command line. Everything goes through the
// Runner interface so tests can substitute canned output for real git.
package vcs

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes a git command in a directory. Interface for testing.
type Runner interface {
	Run(dir string, args ...string) (string, error)
}

// ExecGit implements Runner using exec.Command.
type ExecGit struct{}

func (g *ExecGit) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Client runs git operations against one repository.
type Client struct {
	git Runner
	dir string
}

// NewClient creates a client for the repository at dir. An empty dir means
// the current working directory.
func NewClient(git Runner, dir string) *Client {
	return &Client{git: git, dir: dir}
}

// IsClean reports whether the working tree has no pending changes. The
// status text is returned so failures can show what is dirty.
func (c *Client) IsClean() (bool, string, error) {
	out, err := c.git.Run(c.dir, "status", "--porcelain")
	if err != nil {
		return false, "", err
	}
	return out == "", out, nil
}

// CurrentBranch returns the name of the active branch.
func (c *Client) CurrentBranch() (string, error) {
	return c.git.Run(c.dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// Fetch updates remote tracking refs and tags.
func (c *Client) Fetch() error {
	_, err := c.git.Run(c.dir, "fetch", "--tags")
	return err
}

// AheadBehind counts commits the local branch is ahead of and behind its
// upstream.
func (c *Client) AheadBehind() (ahead, behind int, err error) {
	out, err := c.git.Run(c.dir, "rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	return ahead, behind, nil
}

// PushDryRun asks the remote whether a push would be accepted without
// pushing anything.
func (c *Client) PushDryRun() (string, error) {
	return c.git.Run(c.dir, "push", "--dry-run", "origin")
}

// AddKnown stages every already-tracked file that has modifications.
func (c *Client) AddKnown() error {
	_, err := c.git.Run(c.dir, "add", "--update")
	return err
}

// Add stages the given paths.
func (c *Client) Add(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := c.git.Run(c.dir, args...)
	return err
}

// Commit records the staged changes with the given message.
func (c *Client) Commit(message string) error {
	_, err := c.git.Run(c.dir, "commit", "-m", message)
	return err
}

// TagAnnotated creates an annotated tag at HEAD.
func (c *Client) TagAnnotated(name, message string) error {
	_, err := c.git.Run(c.dir, "tag", "-a", name, "-m", message)
	return err
}

// Push pushes the current branch to origin, optionally with tags. With
// dryRun the remote is consulted but nothing is transferred.
func (c *Client) Push(tags, dryRun bool) (string, error) {
	args := []string{"push"}
	if dryRun {
		args = append(args, "--dry-run")
	}
	if tags {
		args = append(args, "--follow-tags")
	}
	args = append(args, "origin")
	return c.git.Run(c.dir, args...)
}

// Tags lists every tag name in the repository.
func (c *Client) Tags() ([]string, error) {
	out, err := c.git.Run(c.dir, "tag", "--list")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
