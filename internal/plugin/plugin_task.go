package plugin

import (
	"context"

	"github.com/lucasnoah/yabs/internal/task"
	"github.com/lucasnoah/yabs/internal/taskctx"
)

// pluginTask adapts an interpreted plugin into the task interface.
type pluginTask struct {
	typ    string
	path   string
	run    runFunc
	deps   *task.Deps
	always bool
}

func (p *pluginTask) Name() string { return p.typ }

func (p *pluginTask) Run(_ context.Context, tc *taskctx.Context, g task.Globals) (task.Outcome, error) {
	if g.DryRun && !p.always {
		p.deps.Out.Dryf("would run plugin task %s (%s)", p.typ, p.path)
		return task.Outcome{Status: task.StatusSkipped, Message: "plugin task skipped (dry run)"}, nil
	}
	msg, err := p.run(tc.Vars())
	if err != nil {
		return task.Outcome{Status: task.StatusFailed}, err
	}
	if msg != "" {
		tc.AddNote("%s: %s", p.typ, msg)
		p.deps.Out.Okf("%s: %s", p.typ, msg)
	}
	return task.Outcome{Status: task.StatusOK, Message: msg}, nil
}
