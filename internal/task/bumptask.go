package task

import (
	"context"
	"fmt"

	"github.com/lucasnoah/yabs/internal/bump"
	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/semver"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/template"
)

// defaultTagTemplate names releases the way git projects usually do.
const defaultTagTemplate = "v{version}"

// Bump computes the next version and writes it to every configured version
// source. The task never parses project files itself; reading and writing
// version strings is the version store's job.
type Bump struct {
	deps *Deps

	inc      string
	explicit bool
	prefix   string
	startIdx int
	tagTmpl  string
	check    bool
	maxInc   semver.Increment
}

// NewBump builds the bump task. An inc declared on the task itself wins
// over the --inc argument and counts as explicit.
func NewBump(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Versions == nil {
		return nil, fmt.Errorf("no version sources configured")
	}

	t := &Bump{
		deps:     deps,
		inc:      decl.Str("inc", ""),
		explicit: decl.Str("inc", "") != "",
		prefix:   decl.Str("prerelease_prefix", "a"),
		startIdx: decl.Int("prerelease_start_idx", 1),
		tagTmpl:  decl.Str("tag_name", defaultTagTemplate),
		check:    decl.Bool("check", true),
	}
	if t.inc != "" {
		if _, err := semver.ParseIncrement(t.inc); err != nil {
			return nil, err
		}
	}
	maxInc, err := semver.ParseIncrement(deps.Config.MaxIncrement)
	if err != nil {
		return nil, fmt.Errorf("config.max_increment: %w", err)
	}
	t.maxInc = maxInc
	return t, nil
}

func (t *Bump) Name() string { return "bump" }

func (t *Bump) Run(ctx context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	out := t.deps.Out

	inc := t.inc
	if inc == "" {
		inc = g.Inc
	}
	if inc == "" {
		return Outcome{Status: StatusFailed}, fmt.Errorf("no increment given (pass --inc or set the task's inc option)")
	}
	requested, err := semver.ParseIncrement(inc)
	if err != nil {
		return Outcome{Status: StatusFailed}, err
	}

	text, err := t.deps.Versions.ReadMaster()
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("reading project version: %w", err)
	}
	current, err := semver.Parse(text)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("project version: %w", err)
	}

	tagged, err := t.currentIsTagged(current)
	if err != nil {
		return Outcome{Status: StatusFailed}, err
	}

	pol := bump.Policy{
		PrereleasePrefix:   t.prefix,
		PrereleaseStartIdx: t.startIdx,
		Force:              g.Force,
		ForcePreBump:       g.ForcePreBump,
		IsCurrentTagged:    tagged,
		Explicit:           t.explicit,
		MaxIncrement:       t.maxInc,
	}
	result, err := bump.Next(current, requested, pol)
	if err != nil {
		return Outcome{Status: StatusFailed}, err
	}

	tc.Set(taskctx.KeyVersion, result.Version.String())
	if tag, err := t.tagName(result.Version); err == nil {
		tc.Set(taskctx.KeyTagName, tag)
	}

	if result.NoOp {
		out.Skipf("version %s kept (prerelease not yet tagged)", current)
		return Outcome{Status: StatusSkipped, Message: fmt.Sprintf("version %s unchanged", current)}, nil
	}

	if g.DryRun || g.NoBump {
		out.Dryf("would bump version %s => %s", current, result.Version)
		return Outcome{Status: StatusOK, Message: fmt.Sprintf("%s => %s (not written)", current, result.Version)}, nil
	}

	if err := t.deps.Versions.WriteAll(result.Version.String()); err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("writing version: %w", err)
	}
	if err := t.verifyPackageVersion(ctx, result.Version.String()); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	out.Okf("bumped version %s => %s", current, result.Version)
	return Outcome{Status: StatusOK, Message: fmt.Sprintf("%s => %s", current, result.Version)}, nil
}

// verifyPackageVersion asks the package itself for its version after the
// write, catching version files the workflow forgot to list.
func (t *Bump) verifyPackageVersion(ctx context.Context, want string) error {
	if !t.check || t.deps.Exec == nil {
		return nil
	}
	got, err := t.deps.Exec.Run(ctx, "python", "setup.py", "--version")
	if err != nil {
		t.deps.Out.Warnf("could not verify package version: %v", err)
		return nil
	}
	if got == "" {
		return nil
	}
	if got != want {
		return fmt.Errorf("setup.py --version returned %s (expected %s)", got, want)
	}
	return nil
}

// currentIsTagged reports whether a tag for the current version already
// exists in the repository.
func (t *Bump) currentIsTagged(v semver.Version) (bool, error) {
	if t.deps.Git == nil {
		return false, nil
	}
	want, err := t.tagName(v)
	if err != nil {
		return false, err
	}
	tags, err := t.deps.Git.Tags()
	if err != nil {
		return false, fmt.Errorf("listing tags: %w", err)
	}
	for _, tag := range tags {
		if tag == want {
			return true, nil
		}
	}
	return false, nil
}

func (t *Bump) tagName(v semver.Version) (string, error) {
	return template.Expand(t.tagTmpl, map[string]string{"version": v.String()})
}
