package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasnoah/yabs/internal/taskctx"
)

func TestExecRunsArgv(t *testing.T) {
	deps := testDeps()
	exec := deps.Exec.(*fakeExec)

	tk, err := NewExec(decl("exec", map[string]any{
		"args": []any{"tox", "-e", "lint"},
	}), deps)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tk.Run(context.Background(), taskctx.New(), Globals{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusOK {
		t.Errorf("status = %v", out.Status)
	}
	if len(exec.cmds) != 1 || exec.cmds[0] != "tox -e lint" {
		t.Errorf("cmds = %v", exec.cmds)
	}
}

func TestExecRequiresArgs(t *testing.T) {
	if _, err := NewExec(decl("exec", nil), testDeps()); err == nil {
		t.Fatal("want error for missing args")
	}
}

func TestExecExpandsContextVars(t *testing.T) {
	deps := testDeps()
	exec := deps.Exec.(*fakeExec)

	tk, err := NewExec(decl("exec", map[string]any{
		"args": []any{"echo", "released {version}"},
	}), deps)
	if err != nil {
		t.Fatal(err)
	}
	tc := taskctx.New()
	tc.Set(taskctx.KeyVersion, "1.3.0")
	if _, err := tk.Run(context.Background(), tc, Globals{}); err != nil {
		t.Fatal(err)
	}
	if exec.cmds[0] != "echo released 1.3.0" {
		t.Errorf("cmds = %v", exec.cmds)
	}
}

func TestExecDryRunSkips(t *testing.T) {
	deps := testDeps()
	exec := deps.Exec.(*fakeExec)

	tk, _ := NewExec(decl("exec", map[string]any{"args": []any{"rm", "-rf", "build"}}), deps)
	out, err := tk.Run(context.Background(), taskctx.New(), Globals{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusSkipped || len(exec.cmds) != 0 {
		t.Errorf("dry run must skip: status=%v cmds=%v", out.Status, exec.cmds)
	}
}

func TestExecDryRunArgsSubstitute(t *testing.T) {
	deps := testDeps()
	exec := deps.Exec.(*fakeExec)

	tk, err := NewExec(decl("exec", map[string]any{
		"args":         []any{"make", "deploy"},
		"dry_run_args": []any{"make", "deploy-preview"},
	}), deps)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tk.Run(context.Background(), taskctx.New(), Globals{DryRun: true}); err != nil {
		t.Fatal(err)
	}
	if len(exec.cmds) != 1 || exec.cmds[0] != "make deploy-preview" {
		t.Errorf("cmds = %v", exec.cmds)
	}
}

func TestExecAlwaysBypassesDryRun(t *testing.T) {
	deps := testDeps()
	exec := deps.Exec.(*fakeExec)

	tk, _ := NewExec(decl("exec", map[string]any{
		"args":   []any{"tox", "-e", "lint"},
		"always": true,
	}), deps)
	if _, err := tk.Run(context.Background(), taskctx.New(), Globals{DryRun: true}); err != nil {
		t.Fatal(err)
	}
	if len(exec.cmds) != 1 {
		t.Errorf("always: true must run in a dry run: %v", exec.cmds)
	}
}

func TestExecIgnoreErrors(t *testing.T) {
	deps := testDeps()
	deps.Exec = &fakeExec{fail: map[string]error{"flaky": errors.New("exit 1")}}

	tk, _ := NewExec(decl("exec", map[string]any{
		"args":          []any{"flaky"},
		"ignore_errors": true,
	}), deps)
	out, err := tk.Run(context.Background(), taskctx.New(), Globals{})
	if err != nil {
		t.Fatalf("ignore_errors must swallow the failure: %v", err)
	}
	if out.Status != StatusOK || !strings.Contains(out.Message, "ignored") {
		t.Errorf("outcome = %+v", out)
	}

	// without ignore_errors the same failure aborts
	tk, _ = NewExec(decl("exec", map[string]any{"args": []any{"flaky"}}), deps)
	if _, err := tk.Run(context.Background(), taskctx.New(), Globals{}); err == nil {
		t.Fatal("want error without ignore_errors")
	}
}

func TestExecRejectsBadTimeoutAtLoadTime(t *testing.T) {
	_, err := NewExec(decl("exec", map[string]any{
		"args":    []any{"sleep", "1"},
		"timeout": "soonish",
	}), testDeps())
	if err == nil {
		t.Fatal("want construction error for bad timeout")
	}
}

func TestExecCollectsArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"yabs-1.3.0.tar.gz", "yabs-1.3.0-py3-none-any.whl", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	deps := testDeps()
	tk, err := NewExec(decl("exec", map[string]any{
		"args": []any{"python", "setup.py", "sdist", "bdist_wheel"},
		"add_artifacts": map[string]any{
			"folder": dir,
			"matches": map[string]any{
				"sdist":       `yabs-{version}\.tar\.gz`,
				"bdist_wheel": `yabs-{version}.*\.whl`,
			},
		},
	}), deps)
	if err != nil {
		t.Fatal(err)
	}

	tc := taskctx.New()
	tc.Set(taskctx.KeyVersion, "1.3.0")
	if _, err := tk.Run(context.Background(), tc, Globals{}); err != nil {
		t.Fatal(err)
	}

	artifacts := tc.Artifacts()
	if filepath.Base(artifacts["sdist"]) != "yabs-1.3.0.tar.gz" {
		t.Errorf("sdist = %q", artifacts["sdist"])
	}
	if filepath.Base(artifacts["bdist_wheel"]) != "yabs-1.3.0-py3-none-any.whl" {
		t.Errorf("bdist_wheel = %q", artifacts["bdist_wheel"])
	}
}
