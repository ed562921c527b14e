// Package runner drives a workflow: it resolves every task declaration up
// front, seeds the shared run context, executes the tasks in order, and
// stops at the first failure. Nothing executes until the whole workflow
// resolved, so a typo in task 7 is caught before task 1 touches anything.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/history"
	"github.com/lucasnoah/yabs/internal/semver"
	"github.com/lucasnoah/yabs/internal/task"
	"github.com/lucasnoah/yabs/internal/taskctx"
)

// State is the runner lifecycle state.
type State int

const (
	StateLoaded State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// TaskError wraps a task failure with its position in the workflow.
type TaskError struct {
	Index int
	Type  string
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s): %v", e.Index+1, e.Type, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// TaskResult is the recorded outcome of one executed task.
type TaskResult struct {
	Type    string
	Status  task.Status
	Message string
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	State      State
	OrgVersion string
	Version    string
	Results    []TaskResult
	Artifacts  map[string]string
	Notes      []string
	Elapsed    time.Duration
}

// Options configure a runner beyond the workflow itself.
type Options struct {
	// WorkflowPath is recorded in the run history.
	WorkflowPath string
	// Globals are the per-run flags handed to every task.
	Globals task.Globals
	// History, when set, records the run in the history database.
	History *history.Store
}

// Runner executes one workflow once.
type Runner struct {
	wf    *config.Workflow
	deps  *task.Deps
	opts  Options
	tasks []task.Task
	decls []config.TaskDecl
	ctx   *taskctx.Context
	state State
}

// New validates the workflow and resolves every task. An unknown task type
// or invalid task option fails here, before anything runs.
func New(wf *config.Workflow, reg *task.Registry, deps *task.Deps, opts Options) (*Runner, error) {
	if errs := config.Validate(wf); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid workflow:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	r := &Runner{wf: wf, deps: deps, opts: opts, state: StateLoaded}
	for i, decl := range wf.Tasks {
		t, err := reg.Resolve(decl, deps)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		r.tasks = append(r.tasks, t)
		r.decls = append(r.decls, decl)
	}

	tc, err := r.seedContext()
	if err != nil {
		return nil, err
	}
	r.ctx = tc
	return r, nil
}

// State returns the runner lifecycle state.
func (r *Runner) State() State { return r.state }

// Context exposes the shared run context (read-only use intended).
func (r *Runner) Context() *taskctx.Context { return r.ctx }

// seedContext fills the run context with everything tasks may template
// against before the first task runs.
func (r *Runner) seedContext() (*taskctx.Context, error) {
	tc := taskctx.New()
	g := r.opts.Globals

	tc.Set(taskctx.KeyInc, g.Inc)
	tc.Set(taskctx.KeyDryRun, g.DryRun)
	tc.Set(taskctx.KeyForce, g.Force)
	tc.Set(taskctx.KeyNoRelease, g.NoRelease)
	if r.deps.Out != nil {
		tc.Set(taskctx.KeyVerbose, r.deps.Out.Level())
	}

	if r.wf.Config.Repo != "" {
		tc.Set(taskctx.KeyRepo, r.wf.Config.Repo)
		tc.Set(taskctx.KeyRepoShort, r.wf.Config.RepoShort())
	}

	if r.deps.Versions != nil {
		v, err := r.deps.Versions.ReadMaster()
		if err != nil {
			return nil, fmt.Errorf("reading project version: %w", err)
		}
		tc.Set(taskctx.KeyOrgVersion, v)
		tc.Set(taskctx.KeyVersion, v)
	}

	if r.deps.Git != nil {
		if tag := r.latestVersionTag(); tag != "" {
			tc.Set(taskctx.KeyOrgTagName, tag)
		}
	}
	return tc, nil
}

// latestVersionTag returns the highest version-shaped tag in the
// repository, used for templating compare URLs in release notes.
func (r *Runner) latestVersionTag() string {
	tags, err := r.deps.Git.Tags()
	if err != nil {
		return ""
	}
	best := ""
	var bestV semver.Version
	for _, tag := range tags {
		v, err := semver.Parse(strings.TrimPrefix(tag, "v"))
		if err != nil {
			continue
		}
		if best == "" || semver.Compare(v, bestV) > 0 {
			best = tag
			bestV = v
		}
	}
	return best
}

// Run executes the workflow. The context cancels the run between tasks
// (and inside tasks that respect it), turning an interrupt into an orderly
// abort.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	r.state = StateRunning
	out := r.deps.Out

	var runID int64
	if r.opts.History != nil {
		id, err := r.opts.History.StartRun(r.opts.WorkflowPath, r.wf.Config.Repo, r.opts.Globals.DryRun)
		if err != nil {
			out.Warnf("run history unavailable: %v", err)
		} else {
			runID = id
		}
	}

	var results []TaskResult
	var runErr error
	for i, t := range r.tasks {
		if err := ctx.Err(); err != nil {
			runErr = &TaskError{Index: i, Type: r.decls[i].Type, Err: err}
			break
		}

		out.Infof("=== task %d/%d: %s", i+1, len(r.tasks), r.decls[i].Type)
		outcome, err := t.Run(ctx, r.ctx, r.opts.Globals)
		if err != nil {
			outcome.Status = task.StatusFailed
			if outcome.Message == "" {
				outcome.Message = err.Error()
			}
		}
		results = append(results, TaskResult{Type: r.decls[i].Type, Status: outcome.Status, Message: outcome.Message})
		if runID != 0 {
			_ = r.opts.History.RecordTask(runID, i, r.decls[i].Type, outcome.Status.String(), outcome.Message)
		}
		if err != nil {
			out.Errorf("task %s failed: %v", r.decls[i].Type, err)
			runErr = &TaskError{Index: i, Type: r.decls[i].Type, Err: err}
			break
		}
	}

	if runErr != nil {
		r.state = StateAborted
	} else {
		r.state = StateCompleted
	}

	summary := Summary{
		State:      r.state,
		OrgVersion: r.ctx.String(taskctx.KeyOrgVersion),
		Version:    r.ctx.String(taskctx.KeyVersion),
		Results:    results,
		Artifacts:  r.ctx.Artifacts(),
		Notes:      r.ctx.Notes(),
		Elapsed:    time.Since(start),
	}

	if runID != 0 {
		status := "completed"
		if r.state == StateAborted {
			status = "aborted"
		}
		_ = r.opts.History.FinishRun(runID, status, summary.OrgVersion, summary.Version)
	}

	r.printSummary(summary)
	return summary, runErr
}

func (r *Runner) printSummary(s Summary) {
	out := r.deps.Out
	if s.State == StateAborted {
		out.Errorf("run aborted after %s", s.Elapsed.Round(time.Millisecond))
	} else {
		out.Okf("run completed in %s", s.Elapsed.Round(time.Millisecond))
	}
	if s.OrgVersion != "" && s.Version != "" && s.OrgVersion != s.Version {
		out.Infof("version: %s => %s", s.OrgVersion, s.Version)
	}
	for _, kind := range r.ctx.ArtifactKinds() {
		out.Infof("artifact %s: %s", kind, s.Artifacts[kind])
	}
	for _, note := range s.Notes {
		out.Infof("%s", note)
	}
}
