package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/ui"
)

// artifactSuffixes maps distribution format names to the file suffix each
// format produces in the artifact folder.
var artifactSuffixes = map[string]string{
	"sdist":       ".tar.gz",
	"bdist_wheel": ".whl",
	"bdist_msi":   ".msi",
}

// PypiRelease builds Python distributions and uploads them with twine.
// Built files are recorded as run artifacts so a later github_release can
// attach them.
type PypiRelease struct {
	deps   *Deps
	build  []string
	upload bool
}

func NewPypiRelease(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Exec == nil {
		return nil, fmt.Errorf("no command runner configured")
	}
	t := &PypiRelease{
		deps:   deps,
		build:  decl.List("build"),
		upload: decl.Bool("upload", true),
	}
	if len(t.build) == 0 {
		return nil, fmt.Errorf("build is required (e.g. [sdist, bdist_wheel])")
	}
	for _, format := range t.build {
		if _, ok := artifactSuffixes[format]; !ok {
			return nil, fmt.Errorf("unknown build format %q", format)
		}
	}
	return t, nil
}

func (t *PypiRelease) Name() string { return "pypi_release" }

func (t *PypiRelease) Run(ctx context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	out := t.deps.Out
	if g.NoRelease {
		out.Skipf("pypi release suppressed (--no-release)")
		return Outcome{Status: StatusSkipped, Message: "suppressed by --no-release"}, nil
	}
	if g.DryRun {
		out.Dryf("would build %v and upload to PyPI", t.build)
		return Outcome{Status: StatusSkipped, Message: "pypi release skipped (dry run)"}, nil
	}

	args := append([]string{"setup.py"}, t.build...)
	buildOut, err := t.deps.Exec.Run(ctx, "python", args...)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("building distributions: %w", err)
	}
	out.Response(ui.LevelDebug, "python "+strings.Join(args, " "), buildOut)

	files, err := t.collect(tc)
	if err != nil {
		return Outcome{Status: StatusFailed}, err
	}

	if !t.upload {
		out.Okf("built %d distribution file(s), upload disabled", len(files))
		return Outcome{Status: StatusOK, Message: fmt.Sprintf("built %v", t.build)}, nil
	}

	uploadOut, err := t.deps.Exec.Run(ctx, "twine", append([]string{"upload"}, files...)...)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("twine upload: %w", err)
	}
	out.Response(ui.LevelDebug, "twine upload", uploadOut)
	tc.AddNote("uploaded %d file(s) to PyPI", len(files))
	out.Okf("uploaded %d file(s) to PyPI", len(files))
	return Outcome{Status: StatusOK, Message: fmt.Sprintf("uploaded %v", t.build)}, nil
}

// collect finds the file each requested format produced for the current
// version and records it as an artifact.
func (t *PypiRelease) collect(tc *taskctx.Context) ([]string, error) {
	dir := t.deps.Config.ArtifactDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("artifact folder: %w", err)
	}
	version := tc.String(taskctx.KeyVersion)

	var files []string
	for _, format := range t.build {
		suffix := artifactSuffixes[format]
		found := ""
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, suffix) {
				continue
			}
			if version != "" && !strings.Contains(name, version) {
				continue
			}
			found = filepath.Join(dir, name)
		}
		if found == "" {
			return nil, fmt.Errorf("no %s file for version %s in %s", format, version, dir)
		}
		tc.AddArtifact(format, found)
		files = append(files, found)
	}
	return files, nil
}
