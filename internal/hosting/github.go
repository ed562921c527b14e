// Package hosting talks to GitHub through the gh command line tool. The
// token is never passed on the command line; it is exported as GH_TOKEN
// for the child process.
package hosting

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CmdRunner provides gh command execution. Interface for testing.
type CmdRunner interface {
	Run(args ...string) (string, error)
}

// ExecRunner runs gh commands via exec. When tokenVar names an environment
// variable that is set, its value is forwarded as GH_TOKEN.
type ExecRunner struct {
	TokenVar string
}

func (r *ExecRunner) Run(args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	cmd.Env = os.Environ()
	if r.TokenVar != "" {
		if token := os.Getenv(r.TokenVar); token != "" {
			cmd.Env = append(cmd.Env, "GH_TOKEN="+token)
		}
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("gh %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Client provides release operations against one repository.
type Client struct {
	cmd  CmdRunner
	repo string
}

// NewClient creates a client for the OWNER/PROJECT repository.
func NewClient(cmd CmdRunner, repo string) *Client {
	return &Client{cmd: cmd, repo: repo}
}

// RepoView verifies the repository exists and the credentials can see it.
func (c *Client) RepoView() error {
	_, err := c.cmd.Run("repo", "view", c.repo, "--json", "name")
	if err != nil {
		return fmt.Errorf("view repo %s: %w", c.repo, err)
	}
	return nil
}

// ReleaseOpts holds options for creating a release.
type ReleaseOpts struct {
	Tag        string
	Title      string
	Notes      string
	Draft      bool
	Prerelease bool
}

// CreateRelease publishes a release for an existing tag and returns its URL.
func (c *Client) CreateRelease(opts ReleaseOpts) (string, error) {
	if opts.Tag == "" {
		return "", fmt.Errorf("create release: tag is required")
	}
	args := []string{"release", "create", opts.Tag, "--repo", c.repo, "--title", opts.Title, "--notes", opts.Notes}
	if opts.Draft {
		args = append(args, "--draft")
	}
	if opts.Prerelease {
		args = append(args, "--prerelease")
	}
	out, err := c.cmd.Run(args...)
	if err != nil {
		return "", fmt.Errorf("create release %s: %w", opts.Tag, err)
	}
	return out, nil
}

// UploadAssets attaches files to an existing release, replacing assets of
// the same name.
func (c *Client) UploadAssets(tag string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"release", "upload", tag, "--repo", c.repo, "--clobber"}, files...)
	if _, err := c.cmd.Run(args...); err != nil {
		return fmt.Errorf("upload assets to %s: %w", tag, err)
	}
	return nil
}

// ReleaseURL returns the browser URL of a release by tag.
func (c *Client) ReleaseURL(tag string) string {
	return fmt.Sprintf("https://github.com/%s/releases/tag/%s", c.repo, tag)
}

// CompareURL returns the browser URL comparing two tags.
func (c *Client) CompareURL(fromTag, toTag string) string {
	return fmt.Sprintf("https://github.com/%s/compare/%s...%s", c.repo, fromTag, toTag)
}
