package task

import (
	"context"
	"fmt"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/template"
)

const defaultTagMessage = "Version {version}"

// Tag creates an annotated tag for the new version and publishes its name
// in the run context for later tasks.
type Tag struct {
	deps    *Deps
	name    string
	message string
}

func NewTag(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Git == nil {
		return nil, fmt.Errorf("tag requires a git repository")
	}
	return &Tag{
		deps:    deps,
		name:    decl.Str("name", defaultTagTemplate),
		message: decl.Str("message", defaultTagMessage),
	}, nil
}

func (t *Tag) Name() string { return "tag" }

func (t *Tag) Run(_ context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	name, err := template.Expand(t.name, tc.Vars())
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("tag name: %w", err)
	}
	message, err := template.Expand(t.message, tc.Vars())
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("tag message: %w", err)
	}

	tc.Set(taskctx.KeyTagName, name)

	if g.DryRun {
		t.deps.Out.Dryf("would tag %s", name)
		return Outcome{Status: StatusOK, Message: fmt.Sprintf("tag %s skipped (dry run)", name)}, nil
	}

	if err := t.deps.Git.TagAnnotated(name, message); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	t.deps.Out.Okf("tagged %s", name)
	return Outcome{Status: StatusOK, Message: "tagged " + name}, nil
}
