package task

import (
	"context"
	"fmt"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/ui"
)

// Push pushes the branch (and optionally tags) to origin. In a dry run git
// itself consults the remote without transferring anything.
type Push struct {
	deps *Deps
	tags bool
}

func NewPush(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Git == nil {
		return nil, fmt.Errorf("push requires a git repository")
	}
	return &Push{deps: deps, tags: decl.Bool("tags", false)}, nil
}

func (t *Push) Name() string { return "push" }

func (t *Push) Run(_ context.Context, _ *taskctx.Context, g Globals) (Outcome, error) {
	out, err := t.deps.Git.Push(t.tags, g.DryRun)
	if err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	if g.DryRun {
		t.deps.Out.Dryf("push consulted the remote only")
		t.deps.Out.Response(ui.LevelInfo, "git push --dry-run", out)
		return Outcome{Status: StatusOK, Message: "push dry run"}, nil
	}
	t.deps.Out.Okf("pushed to origin")
	return Outcome{Status: StatusOK, Message: "pushed to origin"}, nil
}
