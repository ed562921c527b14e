package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/semver"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/ui"
)

// WingetRelease submits a manifest update to the winget package index via
// wingetcreate, pointing at an installer asset of the GitHub release made
// earlier in the run. Prereleases are never submitted.
type WingetRelease struct {
	deps      *Deps
	packageID string
	upload    string
	submit    bool
}

func NewWingetRelease(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Exec == nil {
		return nil, fmt.Errorf("no command runner configured")
	}
	t := &WingetRelease{
		deps:      deps,
		packageID: decl.Str("package_id", ""),
		upload:    decl.Str("upload", "bdist_msi"),
		submit:    decl.Bool("submit", true),
	}
	if t.packageID == "" {
		return nil, fmt.Errorf("package_id is required")
	}
	return t, nil
}

func (t *WingetRelease) Name() string { return "winget_release" }

func (t *WingetRelease) Run(ctx context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	out := t.deps.Out
	if g.NoRelease || g.NoWingetRelease {
		out.Skipf("winget release suppressed")
		return Outcome{Status: StatusSkipped, Message: "suppressed by flag"}, nil
	}

	version := tc.String(taskctx.KeyVersion)
	v, err := semver.Parse(version)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("no usable version in run context: %w", err)
	}
	if v.IsPrerelease() {
		out.Skipf("winget does not take prereleases, skipping %s", version)
		return Outcome{Status: StatusSkipped, Message: "prerelease " + version}, nil
	}

	// winget-pkgs wants four-part package versions, e.g. 1.2.3.0.
	wpmVersion := version + ".0"

	asset, ok := tc.Artifacts()[t.upload]
	if !ok {
		return Outcome{Status: StatusFailed}, fmt.Errorf("no %q artifact in run context", t.upload)
	}
	if !strings.Contains(filepath.Base(asset), wpmVersion) {
		out.Warnf("artifact name does not contain the expected version %s: %s", wpmVersion, asset)
	}
	tag := tc.String(taskctx.KeyTagName)
	if tag == "" {
		return Outcome{Status: StatusFailed}, fmt.Errorf("no tag in run context")
	}
	url := fmt.Sprintf("https://github.com/%s/releases/download/%s/%s",
		t.deps.Config.Repo, tag, filepath.Base(asset))

	if g.DryRun {
		out.Dryf("would submit %s %s to winget (%s)", t.packageID, version, url)
		return Outcome{Status: StatusSkipped, Message: "winget release skipped (dry run)"}, nil
	}

	args := []string{"update", t.packageID, "--urls", url, "--version", wpmVersion}
	if t.submit {
		args = append(args, "--submit")
	}
	cmdOut, err := t.deps.Exec.Run(ctx, "wingetcreate", args...)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("wingetcreate: %w", err)
	}
	out.Response(ui.LevelDebug, "wingetcreate update", cmdOut)
	tc.AddNote("winget: submitted %s %s", t.packageID, version)
	out.Okf("submitted %s %s to winget", t.packageID, version)
	return Outcome{Status: StatusOK, Message: fmt.Sprintf("submitted %s %s", t.packageID, version)}, nil
}
