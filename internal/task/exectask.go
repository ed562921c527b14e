package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/template"
	"github.com/lucasnoah/yabs/internal/ui"
)

// Exec runs an arbitrary external command as a workflow step. Arguments
// are an argv list, expanded against the run context, never a shell
// string.
type Exec struct {
	deps *Deps

	args         []string
	dryRunArgs   []string
	hasDryArgs   bool
	always       bool
	silent       bool
	ignoreErrors bool
	timeout      time.Duration

	artifactDir     string
	artifactMatches map[string]*regexp.Regexp
	artifactOrder   []string
}

func NewExec(decl config.TaskDecl, deps *Deps) (Task, error) {
	t := &Exec{
		deps:         deps,
		args:         decl.List("args"),
		dryRunArgs:   decl.List("dry_run_args"),
		hasDryArgs:   decl.Has("dry_run_args"),
		always:       decl.Bool("always", false),
		silent:       decl.Bool("silent", false),
		ignoreErrors: decl.Bool("ignore_errors", false),
	}
	if len(t.args) == 0 {
		return nil, fmt.Errorf("args is required")
	}
	if deps.Exec == nil {
		return nil, fmt.Errorf("no command runner configured")
	}
	if spec := decl.Str("timeout", ""); spec != "" {
		d, err := time.ParseDuration(spec)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		t.timeout = d
	}

	if raw, ok := decl.Options["add_artifacts"].(map[string]any); ok {
		folder, _ := raw["folder"].(string)
		if folder == "" {
			folder = deps.Config.ArtifactDir
		}
		t.artifactDir = folder
		matches, ok := raw["matches"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("add_artifacts needs a matches mapping")
		}
		t.artifactMatches = map[string]*regexp.Regexp{}
		for kind, pattern := range matches {
			re, err := regexp.Compile(fmt.Sprint(pattern))
			if err != nil {
				return nil, fmt.Errorf("add_artifacts %q: %w", kind, err)
			}
			t.artifactMatches[kind] = re
			t.artifactOrder = append(t.artifactOrder, kind)
		}
	}
	return t, nil
}

func (t *Exec) Name() string { return "exec" }

func (t *Exec) Run(ctx context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	args := t.args
	if g.DryRun && !t.always {
		if !t.hasDryArgs {
			t.deps.Out.Dryf("would run %v", t.args)
			return Outcome{Status: StatusSkipped, Message: "exec skipped (dry run)"}, nil
		}
		if len(t.dryRunArgs) == 0 {
			t.deps.Out.Dryf("nothing to run instead of %v", t.args)
			return Outcome{Status: StatusSkipped, Message: "exec skipped (dry run)"}, nil
		}
		args = t.dryRunArgs
	}

	expanded := make([]string, len(args))
	for i, a := range args {
		e, err := template.Expand(a, tc.Vars())
		if err != nil {
			return Outcome{Status: StatusFailed}, err
		}
		expanded[i] = e
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	out, err := t.deps.Exec.Run(ctx, expanded[0], expanded[1:]...)
	if !t.silent && out != "" {
		t.deps.Out.Response(ui.LevelDebug, fmt.Sprintf("exec %v", expanded), out)
	}
	if err != nil {
		if t.ignoreErrors {
			t.deps.Out.Warnf("exec %v failed, ignored: %v", expanded, err)
			return Outcome{Status: StatusOK, Message: fmt.Sprintf("failed but ignored: %v", err)}, nil
		}
		return Outcome{Status: StatusFailed}, err
	}

	if err := t.collectArtifacts(tc); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	return Outcome{Status: StatusOK, Message: fmt.Sprintf("ran %v", expanded)}, nil
}

// collectArtifacts scans the artifact folder and records the newest file
// matching each configured pattern.
func (t *Exec) collectArtifacts(tc *taskctx.Context) error {
	if len(t.artifactMatches) == 0 {
		return nil
	}
	entries, err := os.ReadDir(t.artifactDir)
	if err != nil {
		return fmt.Errorf("add_artifacts: %w", err)
	}
	for _, kind := range t.artifactOrder {
		re, err := t.expandPattern(t.artifactMatches[kind], tc)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() || !re.MatchString(entry.Name()) {
				continue
			}
			tc.AddArtifact(kind, filepath.Join(t.artifactDir, entry.Name()))
		}
	}
	return nil
}

// expandPattern substitutes context vars in an artifact pattern, escaping
// the values so a version like 1.2.3 does not act as a regexp.
func (t *Exec) expandPattern(re *regexp.Regexp, tc *taskctx.Context) (*regexp.Regexp, error) {
	vars := tc.Vars()
	quoted := make(map[string]string, len(vars))
	for k, v := range vars {
		quoted[k] = regexp.QuoteMeta(v)
	}
	text, err := template.Expand(re.String(), quoted)
	if err != nil {
		return nil, fmt.Errorf("add_artifacts: %w", err)
	}
	out, err := regexp.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("add_artifacts: %w", err)
	}
	return out, nil
}
