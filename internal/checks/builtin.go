package checks

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/lucasnoah/yabs/internal/semver"
)

// Git is the slice of git operations the built-in probes need.
type Git interface {
	IsClean() (clean bool, status string, err error)
	PushDryRun() (output string, err error)
	CurrentBranch() (string, error)
	Fetch() error
	AheadBehind() (ahead int, behind int, err error)
}

// Host is the hosting-service surface the probes need: reachability of the
// configured repository with the configured credentials.
type Host interface {
	RepoView() error
}

// ToolVersioner reports a tool's raw version output (e.g. "go version
// go1.25.5 linux/amd64").
type ToolVersioner interface {
	ToolVersion(name string) (string, error)
}

// Verifier reports version files that drifted from the master source.
type Verifier interface {
	Verify() error
}

// Consistent verifies every configured version file carries the same
// version as the master source.
func Consistent(v Verifier) Probe {
	return func() Result {
		if err := v.Verify(); err != nil {
			return Fail("version", "%v", err)
		}
		return Pass("version", "version files agree")
	}
}

// Clean verifies the working tree has no pending changes.
func Clean(g Git) Probe {
	return func() Result {
		clean, status, err := g.IsClean()
		if err != nil {
			return Fail("clean", "git status failed: %v", err)
		}
		if !clean {
			return Fail("clean", "working tree has pending changes:\n%s", status)
		}
		return Pass("clean", "working tree is clean")
	}
}

// CanPush performs a dry-run push to confirm the remote would accept one.
func CanPush(g Git) Probe {
	return func() Result {
		if _, err := g.PushDryRun(); err != nil {
			return Fail("can_push", "`git push` would fail: %v", err)
		}
		return Pass("can_push", "`git push` would succeed")
	}
}

// Branch verifies the active branch is in the allow-list.
func Branch(g Git, allowed []string) Probe {
	return func() Result {
		cur, err := g.CurrentBranch()
		if err != nil {
			return Fail("branches", "cannot determine active branch: %v", err)
		}
		for _, b := range allowed {
			if b == cur {
				return Pass("branches", "active branch %q is in allowed list (%s)", cur, strings.Join(allowed, ", "))
			}
		}
		return Fail("branches", "active branch %q not in allowed list (%s)", cur, strings.Join(allowed, ", "))
	}
}

// HostReachable verifies the hosting service knows the repository and the
// credentials work.
func HostReachable(h Host, repo string) Probe {
	return func() Result {
		if repo == "" || !strings.Contains(repo, "/") {
			return Fail("repo", "invalid repo name (expected OWNER/PROJECT): %q", repo)
		}
		if err := h.RepoView(); err != nil {
			return Fail("repo", "repo %s not reachable: %v", repo, err)
		}
		return Pass("repo", "repo %s is reachable", repo)
	}
}

// UpToDate fetches and verifies the local branch has not fallen behind its
// upstream.
func UpToDate(g Git) Probe {
	return func() Result {
		if err := g.Fetch(); err != nil {
			return Fail("up_to_date", "git fetch failed: %v", err)
		}
		_, behind, err := g.AheadBehind()
		if err != nil {
			return Fail("up_to_date", "cannot compare with upstream: %v", err)
		}
		if behind > 0 {
			return Fail("up_to_date", "remote branch has %d unpulled commit(s)", behind)
		}
		return Pass("up_to_date", "remote branch has not diverged")
	}
}

// Sandbox verifies an isolated tool environment is active, detected through
// the given environment variable.
func Sandbox(envVar string, lookup func(string) string) Probe {
	if lookup == nil {
		lookup = os.Getenv
	}
	return func() Result {
		if lookup(envVar) == "" {
			return Fail("sandbox", "no sandboxed environment detected (%s is unset)", envVar)
		}
		return Pass("sandbox", "sandboxed environment active (%s is set)", envVar)
	}
}

// ArtifactDir verifies the build output folder exists.
func ArtifactDir(dir string) Probe {
	return func() Result {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return Fail("build", "artifact folder missing: %s", dir)
		}
		return Pass("build", "artifact folder exists: %s", dir)
	}
}

// Tool verifies an external tool's version satisfies a range specifier.
func Tool(tv ToolVersioner, name string, spec semver.Range) Probe {
	return func() Result {
		out, err := tv.ToolVersion(name)
		if err != nil {
			return Fail(name, "cannot determine %s version: %v", name, err)
		}
		v, err := ExtractVersion(out)
		if err != nil {
			return Fail(name, "cannot parse %s version from %q", name, firstLine(out))
		}
		if !spec.Match(v) {
			return Fail(name, "%s version %s does not match %q", name, v, spec)
		}
		return Pass(name, "%s version %s matches %q", name, v, spec)
	}
}

// SelfVersion verifies this tool's own version satisfies the workflow's
// declared range.
func SelfVersion(current string, spec semver.Range) Probe {
	return func() Result {
		v, err := ExtractVersion(current)
		if err != nil {
			return Skip("yabs", "own version %q is not a release build", current)
		}
		if !spec.Match(v) {
			return Fail("yabs", "yabs version %s does not match %q", v, spec)
		}
		return Pass("yabs", "yabs version %s matches %q", v, spec)
	}
}

// Platform verifies the current operating system is in the allow-list.
func Platform(allowed []string, current string) Probe {
	return func() Result {
		for _, o := range allowed {
			if strings.EqualFold(o, current) {
				return Pass("os", "platform %q is in allowed list (%s)", current, strings.Join(allowed, ", "))
			}
		}
		return Fail("os", "platform %q not in allowed list (%s)", current, strings.Join(allowed, ", "))
	}
}

var versionOutRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ExtractVersion pulls the first dotted version out of arbitrary tool
// output and pads it to a full semantic version.
func ExtractVersion(out string) (semver.Version, error) {
	m := versionOutRe.FindStringSubmatch(out)
	if m == nil {
		return semver.Version{}, fmt.Errorf("no version number in %q", firstLine(out))
	}
	text := m[0]
	if m[3] == "" {
		text += ".0"
	}
	return semver.Parse(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
