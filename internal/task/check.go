package task

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/lucasnoah/yabs/internal/checks"
	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/semver"
	"github.com/lucasnoah/yabs/internal/taskctx"
)

// knownCheckOptions are the precondition names a check task understands, in
// report order. Options the workflow leaves out still show up in the report
// as skipped, so a reader sees what was not verified.
var knownCheckOptions = []string{
	"branches",
	"can_push",
	"clean",
	"os",
	"python",
	"repo",
	"sandbox",
	"build",
	"up_to_date",
	"version",
	"yabs",
}

// Check is the precondition gate. All configured probes run; the report is
// printed in full and a single failed probe fails the task (unless
// --no-check downgrades failures to warnings).
type Check struct {
	checker *checks.Checker
	deps    *Deps
}

// NewCheck builds the check task from its declaration. Range specifiers
// are parsed here so a typo aborts the run before anything executes.
func NewCheck(decl config.TaskDecl, deps *Deps) (Task, error) {
	c := checks.New()
	for _, name := range knownCheckOptions {
		c.AddSkip(name, "not configured")
	}

	if branches := decl.List("branches"); len(branches) > 0 {
		c.Add("branches", checks.Branch(deps.Git, branches))
	}
	if decl.Bool("can_push", false) {
		c.Add("can_push", checks.CanPush(deps.Git))
	}
	if decl.Bool("clean", false) {
		c.Add("clean", checks.Clean(deps.Git))
	}
	if osList := decl.List("os"); len(osList) > 0 {
		c.Add("os", checks.Platform(osList, runtime.GOOS))
	}
	if decl.Bool("repo", false) {
		if deps.Host == nil {
			return nil, fmt.Errorf("repo check requires config.repo")
		}
		c.Add("repo", checks.HostReachable(deps.Host, deps.Config.Repo))
	}
	if decl.Bool("sandbox", false) {
		c.Add("sandbox", checks.Sandbox("VIRTUAL_ENV", nil))
	}
	if decl.Bool("build", false) {
		c.Add("build", checks.ArtifactDir(deps.Config.ArtifactDir))
	}
	if decl.Bool("up_to_date", false) {
		c.Add("up_to_date", checks.UpToDate(deps.Git))
	}
	if decl.Bool("version", false) {
		if deps.Versions == nil {
			return nil, fmt.Errorf("version check requires config.version sources")
		}
		c.Add("version", checks.Consistent(deps.Versions))
	}

	if spec := decl.Str("yabs", ""); spec != "" {
		r, err := semver.ParseRange(spec)
		if err != nil {
			return nil, fmt.Errorf("yabs check: %w", err)
		}
		c.Add("yabs", checks.SelfVersion(deps.SelfVersion, r))
	}

	tools := map[string]string{}
	if spec := decl.Str("python", ""); spec != "" {
		tools["python"] = spec
	}
	if raw, ok := decl.Options["tools"].(map[string]any); ok {
		names := make([]string, 0, len(raw))
		for name := range raw {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			tools[name] = fmt.Sprint(raw[name])
		}
	}
	if len(tools) > 0 {
		tv, ok := deps.Exec.(checks.ToolVersioner)
		if !ok {
			return nil, fmt.Errorf("tool checks need a command runner")
		}
		names := make([]string, 0, len(tools))
		for name := range tools {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r, err := semver.ParseRange(tools[name])
			if err != nil {
				return nil, fmt.Errorf("tool check %q: %w", name, err)
			}
			c.Add(name, checks.Tool(tv, name, r))
		}
	}

	return &Check{checker: c, deps: deps}, nil
}

func (t *Check) Name() string { return "check" }

func (t *Check) Run(_ context.Context, _ *taskctx.Context, g Globals) (Outcome, error) {
	out := t.deps.Out
	report := t.checker.Run()
	for _, r := range report {
		line := fmt.Sprintf("%s %s: %s", out.Badge(r.Passed, r.Skipped), r.Name, r.Message)
		if !r.Passed && !r.Skipped {
			out.Errorf("%s", line)
		} else {
			out.Infof("%s", line)
		}
	}

	skipped := len(report) - report.Executed()
	if report.OK() {
		return Outcome{
			Status:  StatusOK,
			Message: fmt.Sprintf("%d check(s) passed, %d skipped", report.Executed(), skipped),
		}, nil
	}

	failed := len(report.Failures())
	if g.NoCheck {
		out.Warnf("%d check(s) failed, continuing anyway (--no-check)", failed)
		return Outcome{
			Status:  StatusOK,
			Message: fmt.Sprintf("%d check(s) failed, ignored by --no-check", failed),
		}, nil
	}
	return Outcome{Status: StatusFailed}, fmt.Errorf("%d precondition check(s) failed", failed)
}
