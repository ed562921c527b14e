package task

import (
	"context"
	"fmt"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/template"
)

const defaultCommitMessage = "Bump version to {version}"

// Commit stages and commits the files the bump touched.
type Commit struct {
	deps     *Deps
	add      []string
	addKnown bool
	message  string
}

func NewCommit(decl config.TaskDecl, deps *Deps) (Task, error) {
	if deps.Git == nil {
		return nil, fmt.Errorf("commit requires a git repository")
	}
	t := &Commit{
		deps:     deps,
		add:      decl.List("add"),
		addKnown: decl.Bool("add_known", true),
		message:  decl.Str("message", defaultCommitMessage),
	}
	return t, nil
}

func (t *Commit) Name() string { return "commit" }

func (t *Commit) Run(_ context.Context, tc *taskctx.Context, g Globals) (Outcome, error) {
	message, err := template.Expand(t.message, tc.Vars())
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("commit message: %w", err)
	}

	if g.DryRun {
		t.deps.Out.Dryf("would commit: %s", firstLineOf(message))
		return Outcome{Status: StatusOK, Message: "commit skipped (dry run)"}, nil
	}

	if t.addKnown {
		if err := t.deps.Git.AddKnown(); err != nil {
			return Outcome{Status: StatusFailed}, err
		}
	}
	if err := t.deps.Git.Add(t.add...); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	if err := t.deps.Git.Commit(message); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	t.deps.Out.Okf("committed: %s", firstLineOf(message))
	return Outcome{Status: StatusOK, Message: firstLineOf(message)}, nil
}

func firstLineOf(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
