package task

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lucasnoah/yabs/internal/config"
)

// Factory constructs a task from its workflow declaration.
type Factory func(decl config.TaskDecl, deps *Deps) (Task, error)

// DuplicateTaskTypeError reports a second registration of a task type.
type DuplicateTaskTypeError struct {
	Type string
}

func (e *DuplicateTaskTypeError) Error() string {
	return fmt.Sprintf("task type %q already registered", e.Type)
}

// UnknownTaskTypeError reports a workflow entry naming a task type nobody
// registered.
type UnknownTaskTypeError struct {
	Type  string
	Known []string
}

func (e *UnknownTaskTypeError) Error() string {
	return fmt.Sprintf("unknown task type %q (known: %s)", e.Type, strings.Join(e.Known, ", "))
}

// Registry maintains the known task factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with every built-in task type installed.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.MustRegister("check", NewCheck)
	r.MustRegister("bump", NewBump)
	r.MustRegister("commit", NewCommit)
	r.MustRegister("tag", NewTag)
	r.MustRegister("push", NewPush)
	r.MustRegister("exec", NewExec)
	r.MustRegister("github_release", NewGithubRelease)
	r.MustRegister("pypi_release", NewPypiRelease)
	r.MustRegister("winget_release", NewWingetRelease)
	return r
}

// Register installs a task factory. A second registration of the same type
// is an error: plugins may add types but never silently replace one.
func (r *Registry) Register(typ string, factory Factory) error {
	if typ == "" {
		return fmt.Errorf("task: type is required")
	}
	if factory == nil {
		return fmt.Errorf("task: factory is required for %q", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[typ]; exists {
		return &DuplicateTaskTypeError{Type: typ}
	}
	r.factories[typ] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(typ string, factory Factory) {
	if err := r.Register(typ, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs the task for a workflow declaration.
func (r *Registry) Resolve(decl config.TaskDecl, deps *Deps) (Task, error) {
	r.mu.RLock()
	factory, ok := r.factories[decl.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTaskTypeError{Type: decl.Type, Known: r.Types()}
	}
	t, err := factory(decl, deps)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", decl.Type, err)
	}
	return t, nil
}

// Types returns a sorted list of registered task types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for typ := range r.factories {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
