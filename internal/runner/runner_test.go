package runner

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/history"
	"github.com/lucasnoah/yabs/internal/task"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/ui"
)

// scriptedTask runs a function and counts invocations.
type scriptedTask struct {
	typ  string
	runs *int
	fn   func(tc *taskctx.Context) (task.Outcome, error)
}

func (s *scriptedTask) Name() string { return s.typ }

func (s *scriptedTask) Run(_ context.Context, tc *taskctx.Context, _ task.Globals) (task.Outcome, error) {
	*s.runs = *s.runs + 1
	if s.fn != nil {
		return s.fn(tc)
	}
	return task.Outcome{Status: task.StatusOK}, nil
}

type fakeVersions struct{ version string }

func (f *fakeVersions) ReadMaster() (string, error) { return f.version, nil }
func (f *fakeVersions) WriteAll(v string) error     { f.version = v; return nil }
func (f *fakeVersions) Verify() error               { return nil }

func testRegistry(t *testing.T, runs map[string]*int, fns map[string]func(*taskctx.Context) (task.Outcome, error)) *task.Registry {
	t.Helper()
	reg := task.NewRegistry()
	for typ := range runs {
		typ := typ
		counter := runs[typ]
		fn := fns[typ]
		if err := reg.Register(typ, func(config.TaskDecl, *task.Deps) (task.Task, error) {
			return &scriptedTask{typ: typ, runs: counter, fn: fn}, nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func workflow(types ...string) *config.Workflow {
	wf := &config.Workflow{FileVersion: "yabs#1", Config: config.Config{MaxIncrement: "minor"}}
	for _, typ := range types {
		wf.Tasks = append(wf.Tasks, config.TaskDecl{Type: typ, Options: map[string]any{}})
	}
	return wf
}

func testDeps() *task.Deps {
	return &task.Deps{
		Config:   config.Config{MaxIncrement: "minor"},
		Versions: &fakeVersions{version: "1.2.3"},
		Out:      ui.New(io.Discard, 0),
	}
}

func TestUnknownTaskTypeFailsBeforeAnythingRuns(t *testing.T) {
	runs := map[string]*int{"step_a": new(int)}
	reg := testRegistry(t, runs, nil)

	_, err := New(workflow("step_a", "fly_to_moon"), reg, testDeps(), Options{})
	if err == nil {
		t.Fatal("want load error for unknown task type")
	}
	var unknown *task.UnknownTaskTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("want UnknownTaskTypeError, got %v", err)
	}
	if *runs["step_a"] != 0 {
		t.Errorf("no task may run when loading fails, step_a ran %d times", *runs["step_a"])
	}
}

func TestRunExecutesTasksInOrder(t *testing.T) {
	var order []string
	runs := map[string]*int{"step_a": new(int), "step_b": new(int)}
	fns := map[string]func(*taskctx.Context) (task.Outcome, error){
		"step_a": func(*taskctx.Context) (task.Outcome, error) {
			order = append(order, "a")
			return task.Outcome{Status: task.StatusOK}, nil
		},
		"step_b": func(*taskctx.Context) (task.Outcome, error) {
			order = append(order, "b")
			return task.Outcome{Status: task.StatusOK}, nil
		},
	}
	reg := testRegistry(t, runs, fns)

	r, err := New(workflow("step_a", "step_b"), reg, testDeps(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if r.State() != StateLoaded {
		t.Errorf("state before run = %v", r.State())
	}

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.State() != StateCompleted || sum.State != StateCompleted {
		t.Errorf("state = %v / %v", r.State(), sum.State)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v", order)
	}
	if len(sum.Results) != 2 {
		t.Errorf("results = %v", sum.Results)
	}
}

func TestRunAbortsAtFirstFailure(t *testing.T) {
	runs := map[string]*int{"boom": new(int), "after": new(int)}
	fns := map[string]func(*taskctx.Context) (task.Outcome, error){
		"boom": func(*taskctx.Context) (task.Outcome, error) {
			return task.Outcome{Status: task.StatusFailed}, errors.New("kaboom")
		},
	}
	reg := testRegistry(t, runs, fns)

	r, err := New(workflow("boom", "after"), reg, testDeps(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(context.Background())
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("want TaskError, got %v", err)
	}
	if taskErr.Type != "boom" || taskErr.Index != 0 {
		t.Errorf("taskErr = %+v", taskErr)
	}
	if sum.State != StateAborted {
		t.Errorf("state = %v", sum.State)
	}
	if *runs["after"] != 0 {
		t.Error("tasks after a failure must not run")
	}
}

func TestRunSeedsContext(t *testing.T) {
	var seen map[string]string
	runs := map[string]*int{"peek": new(int)}
	fns := map[string]func(*taskctx.Context) (task.Outcome, error){
		"peek": func(tc *taskctx.Context) (task.Outcome, error) {
			seen = tc.Vars()
			return task.Outcome{Status: task.StatusOK}, nil
		},
	}
	reg := testRegistry(t, runs, fns)

	wf := workflow("peek")
	wf.Config.Repo = "mar10/yabs"
	deps := testDeps()
	deps.Config.Repo = "mar10/yabs"

	r, err := New(wf, reg, deps, Options{Globals: task.Globals{Inc: "minor", DryRun: true}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for key, want := range map[string]string{
		taskctx.KeyInc:        "minor",
		taskctx.KeyDryRun:     "true",
		taskctx.KeyRepo:       "mar10/yabs",
		taskctx.KeyRepoShort:  "yabs",
		taskctx.KeyOrgVersion: "1.2.3",
		taskctx.KeyVersion:    "1.2.3",
	} {
		if seen[key] != want {
			t.Errorf("context %s = %q, want %q", key, seen[key], want)
		}
	}
}

func TestRunCanceledContextAborts(t *testing.T) {
	runs := map[string]*int{"never": new(int)}
	reg := testRegistry(t, runs, nil)

	r, err := New(workflow("never"), reg, testDeps(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := r.Run(ctx)
	if err == nil {
		t.Fatal("want error for canceled run")
	}
	if sum.State != StateAborted {
		t.Errorf("state = %v", sum.State)
	}
	if *runs["never"] != 0 {
		t.Error("no task may start after cancellation")
	}
}

func TestNewRejectsInvalidWorkflow(t *testing.T) {
	reg := task.NewRegistry()
	wf := &config.Workflow{FileVersion: "yabs#1", Config: config.Config{MaxIncrement: "gigantic"}}
	wf.Tasks = []config.TaskDecl{{Type: "exec", Options: map[string]any{"args": []any{"true"}}}}

	if _, err := New(wf, reg, testDeps(), Options{}); err == nil {
		t.Fatal("want validation error")
	}
}

func TestSummaryVersionDelta(t *testing.T) {
	runs := map[string]*int{"bumpish": new(int)}
	fns := map[string]func(*taskctx.Context) (task.Outcome, error){
		"bumpish": func(tc *taskctx.Context) (task.Outcome, error) {
			tc.Set(taskctx.KeyVersion, "1.3.0")
			tc.AddArtifact("sdist", "dist/yabs-1.3.0.tar.gz")
			tc.AddNote("uploaded to PyPI")
			return task.Outcome{Status: task.StatusOK}, nil
		},
	}
	reg := testRegistry(t, runs, fns)

	r, err := New(workflow("bumpish"), reg, testDeps(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.OrgVersion != "1.2.3" || sum.Version != "1.3.0" {
		t.Errorf("delta = %s => %s", sum.OrgVersion, sum.Version)
	}
	if sum.Artifacts["sdist"] == "" || len(sum.Notes) != 1 {
		t.Errorf("artifacts = %v, notes = %v", sum.Artifacts, sum.Notes)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	runs := map[string]*int{"bumpish": new(int)}
	fns := map[string]func(*taskctx.Context) (task.Outcome, error){
		"bumpish": func(tc *taskctx.Context) (task.Outcome, error) {
			tc.Set(taskctx.KeyVersion, "1.3.0")
			return task.Outcome{Status: task.StatusOK, Message: "1.2.3 => 1.3.0"}, nil
		},
	}
	reg := testRegistry(t, runs, fns)

	r, err := New(workflow("bumpish"), reg, testDeps(), Options{
		WorkflowPath: "yabs.yaml",
		History:      store,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	recorded, err := store.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recorded) != 1 {
		t.Fatalf("runs = %v", recorded)
	}
	run := recorded[0]
	if run.Status != "completed" || run.OrgVersion != "1.2.3" || run.Version != "1.3.0" {
		t.Errorf("run = %+v", run)
	}

	events, err := store.ListTasks(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].TaskType != "bumpish" || events[0].Status != "ok" {
		t.Errorf("events = %+v", events)
	}
}
