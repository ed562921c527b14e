package task

import (
	"context"
	"errors"
	"testing"

	"github.com/lucasnoah/yabs/internal/taskctx"
)

func TestCheckTaskPasses(t *testing.T) {
	deps := testDeps()
	deps.Git = &fakeGit{clean: true, branch: "main"}
	deps.Exec = &fakeExec{outputs: map[string]string{
		"version:python": "Python 3.12.1",
	}}

	tk, err := NewCheck(decl("check", map[string]any{
		"branches": "main",
		"clean":    true,
		"python":   ">=3.9",
		"repo":     true,
	}), deps)
	if err != nil {
		t.Fatal(err)
	}

	out, err := tk.Run(context.Background(), taskctx.New(), Globals{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusOK {
		t.Errorf("status = %v: %s", out.Status, out.Message)
	}
}

func TestCheckTaskFailureAborts(t *testing.T) {
	deps := testDeps()
	deps.Git = &fakeGit{clean: false, branch: "feature/x"}

	tk, err := NewCheck(decl("check", map[string]any{
		"branches": []any{"main"},
		"clean":    true,
	}), deps)
	if err != nil {
		t.Fatal(err)
	}

	out, err := tk.Run(context.Background(), taskctx.New(), Globals{})
	if err == nil {
		t.Fatal("failed checks must error")
	}
	if out.Status != StatusFailed {
		t.Errorf("status = %v", out.Status)
	}
}

func TestCheckTaskNoCheckDowngradesToWarning(t *testing.T) {
	deps := testDeps()
	deps.Git = &fakeGit{clean: false}

	tk, err := NewCheck(decl("check", map[string]any{"clean": true}), deps)
	if err != nil {
		t.Fatal(err)
	}

	out, err := tk.Run(context.Background(), taskctx.New(), Globals{NoCheck: true})
	if err != nil {
		t.Fatalf("--no-check must not abort: %v", err)
	}
	if out.Status != StatusOK {
		t.Errorf("status = %v", out.Status)
	}
}

func TestCheckTaskNullOptionsAreSkipped(t *testing.T) {
	deps := testDeps()
	deps.Git = &fakeGit{clean: true}

	// up_to_date: null in YAML arrives as a present key with nil value
	tk, err := NewCheck(decl("check", map[string]any{
		"clean":      true,
		"up_to_date": nil,
	}), deps)
	if err != nil {
		t.Fatal(err)
	}
	if out, err := tk.Run(context.Background(), taskctx.New(), Globals{}); err != nil {
		t.Fatalf("skipped checks must not fail the report: %v (%s)", err, out.Message)
	}
}

func TestCheckTaskRejectsBadRangeAtLoadTime(t *testing.T) {
	deps := testDeps()
	if _, err := NewCheck(decl("check", map[string]any{"python": ">=not.a.version"}), deps); err == nil {
		t.Fatal("want construction error for bad range")
	}
}

func TestCheckTaskToolsMapping(t *testing.T) {
	deps := testDeps()
	deps.Git = &fakeGit{}
	deps.Exec = &fakeExec{outputs: map[string]string{
		"version:go":    "go version go1.25.5 linux/amd64",
		"version:twine": "twine version 4.0.2",
	}}

	tk, err := NewCheck(decl("check", map[string]any{
		"tools": map[string]any{
			"go":    ">=1.21",
			"twine": ">=4",
		},
	}), deps)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tk.Run(context.Background(), taskctx.New(), Globals{}); err != nil {
		t.Fatal(err)
	}

	deps.Exec = &fakeExec{} // tools missing now
	tk, err = NewCheck(decl("check", map[string]any{
		"tools": map[string]any{"twine": ">=4"},
	}), deps)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tk.Run(context.Background(), taskctx.New(), Globals{}); err == nil {
		t.Fatal("missing tool must fail the check task")
	}
}

func TestCheckTaskVersionConsistency(t *testing.T) {
	deps := testDeps()
	deps.Versions = &fakeVersions{version: "1.2.3"}

	tk, err := NewCheck(decl("check", map[string]any{"version": true}), deps)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tk.Run(context.Background(), taskctx.New(), Globals{}); err != nil {
		t.Fatalf("consistent sources must pass: %v", err)
	}

	deps.Versions = &fakeVersions{version: "1.2.3", verifyErr: errors.New("setup.py holds 1.2.2")}
	tk, err = NewCheck(decl("check", map[string]any{"version": true}), deps)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tk.Run(context.Background(), taskctx.New(), Globals{})
	if err == nil {
		t.Fatalf("drifted sources must fail, got %v", out.Status)
	}
}

func TestCheckTaskVersionNeedsSources(t *testing.T) {
	deps := testDeps()
	deps.Versions = nil
	if _, err := NewCheck(decl("check", map[string]any{"version": true}), deps); err == nil {
		t.Fatal("want construction error without version sources")
	}
}
