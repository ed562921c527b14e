// Package task defines the workflow task interface, the registry of task
// types, and the built-in tasks (check, bump, commit, tag, push, exec and
// the release tasks). Tasks parse their options at construction time, so a
// broken workflow fails before anything runs.
package task

import (
	"context"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/hosting"
	"github.com/lucasnoah/yabs/internal/taskctx"
	"github.com/lucasnoah/yabs/internal/ui"
)

// Status classifies a task outcome.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is what a task reports back to the runner.
type Outcome struct {
	Status  Status
	Message string
}

// Globals carries the per-run flags every task may consult.
type Globals struct {
	DryRun          bool
	Force           bool
	Inc             string
	NoCheck         bool
	NoBump          bool
	ForcePreBump    bool
	NoRelease       bool
	NoWingetRelease bool
}

// GitClient is the git surface tasks depend on.
type GitClient interface {
	IsClean() (bool, string, error)
	PushDryRun() (string, error)
	CurrentBranch() (string, error)
	Fetch() error
	AheadBehind() (int, int, error)
	AddKnown() error
	Add(paths ...string) error
	Commit(message string) error
	TagAnnotated(name, message string) error
	Push(tags, dryRun bool) (string, error)
	Tags() ([]string, error)
}

// HostClient is the hosting-service surface tasks depend on.
type HostClient interface {
	RepoView() error
	CreateRelease(opts hosting.ReleaseOpts) (string, error)
	UploadAssets(tag string, files []string) error
	ReleaseURL(tag string) string
	CompareURL(fromTag, toTag string) string
}

// VersionStore reads and writes the project version files.
type VersionStore interface {
	ReadMaster() (string, error)
	WriteAll(version string) error
	Verify() error
}

// CommandRunner executes an external command. Interface for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Deps bundles the collaborators handed to task factories. Fields a task
// does not use may be nil; factories validate what they need.
type Deps struct {
	Config      config.Config
	Git         GitClient
	Host        HostClient
	Versions    VersionStore
	Exec        CommandRunner
	Out         *ui.Printer
	SelfVersion string
}

// Task is one step of a workflow. Run receives the shared mutable context
// and the per-run flags; returning an error marks the task failed and
// aborts the run.
type Task interface {
	Name() string
	Run(ctx context.Context, tc *taskctx.Context, g Globals) (Outcome, error)
}
