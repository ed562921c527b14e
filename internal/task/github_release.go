package task

import (
	"context"
	"fmt"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/hosting"
	"github.com/lucasnoah/yabs/internal/semver"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/template"
)

const defaultReleaseMessage = "Released {version}"

// GithubRelease publishes a GitHub release for the tag created earlier in
// the run and uploads the collected artifacts.
type GithubRelease struct {
	deps *Deps

	name          string
	message       string
	draft         bool
	prerelease    bool
	hasPrerelease bool
	upload        []string
}

func NewGithubRelease(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Host == nil {
		return nil, fmt.Errorf("github_release requires config.repo")
	}
	t := &GithubRelease{
		deps:    deps,
		name:    decl.Str("name", defaultTagTemplate),
		message: decl.Str("message", defaultReleaseMessage),
		draft:   decl.Bool("draft", false),
		upload:  decl.List("upload"),
	}
	// a null prerelease option means: decide from the version
	if decl.Has("prerelease") && decl.Options["prerelease"] != nil {
		t.prerelease = decl.Bool("prerelease", false)
		t.hasPrerelease = true
	}
	return t, nil
}

func (t *GithubRelease) Name() string { return "github_release" }

func (t *GithubRelease) Run(_ context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	out := t.deps.Out
	if g.NoRelease {
		out.Skipf("github release suppressed (--no-release)")
		return Outcome{Status: StatusSkipped, Message: "suppressed by --no-release"}, nil
	}

	tag := tc.String(taskctx.KeyTagName)
	if tag == "" {
		return Outcome{Status: StatusFailed}, fmt.Errorf("no tag in run context (does a tag task run before this one?)")
	}

	title, err := template.Expand(t.name, tc.Vars())
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("release name: %w", err)
	}
	notes, err := template.Expand(t.message, tc.Vars())
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("release message: %w", err)
	}

	prerelease := t.prerelease
	if !t.hasPrerelease {
		if v, err := semver.Parse(tc.String(taskctx.KeyVersion)); err == nil {
			prerelease = v.IsPrerelease()
		}
	}

	files := t.uploadFiles(tc)

	if g.DryRun {
		out.Dryf("would create github release %s (%d asset(s))", tag, len(files))
		return Outcome{Status: StatusSkipped, Message: "github release skipped (dry run)"}, nil
	}

	url, err := t.deps.Host.CreateRelease(hosting.ReleaseOpts{
		Tag:        tag,
		Title:      title,
		Notes:      notes,
		Draft:      t.draft,
		Prerelease: prerelease,
	})
	if err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	if err := t.deps.Host.UploadAssets(tag, files); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	if url == "" {
		url = t.deps.Host.ReleaseURL(tag)
	}
	tc.AddNote("github release: %s", url)
	if from := tc.String(taskctx.KeyOrgTagName); from != "" && from != tag {
		tc.AddNote("changes: %s", t.deps.Host.CompareURL(from, tag))
	}
	out.Okf("created github release %s", url)
	return Outcome{Status: StatusOK, Message: "released " + tag}, nil
}

// uploadFiles maps the configured artifact kinds to the files recorded in
// the run context, skipping kinds nothing produced.
func (t *GithubRelease) uploadFiles(tc *taskctx.Context) []string {
	artifacts := tc.Artifacts()
	var files []string
	for _, kind := range t.upload {
		if path, ok := artifacts[kind]; ok {
			files = append(files, path)
		} else {
			t.deps.Out.Warnf("no %q artifact to upload", kind)
		}
	}
	return files
}
