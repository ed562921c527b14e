// Package plugin loads user-defined task types from Go source files in
// the workflow's plugin directory (.yabs/tasks by default). The files are
// interpreted with yaegi, so a project can add a task type without
// rebuilding anything.
//
// A plugin file declares two top-level functions:
//
//	func TaskType() string
//	func Run(vars map[string]string) (string, error)
//
// TaskType names the task type the file provides; Run receives the run
// context variables and returns a message.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/task"
)

const (
	taskTypeFuncName = "TaskType"
	runFuncName      = "Run"
)

// Loaded describes one successfully loaded plugin.
type Loaded struct {
	Type string
	Path string
}

// RegisterDir interprets every .go file in dir and registers the task
// types they provide. A missing directory is not an error; a broken plugin
// file is.
func RegisterDir(reg *task.Registry, dir string) ([]Loaded, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var loaded []Loaded
	for _, name := range names {
		path := filepath.Join(trimmed, name)
		typ, run, err := loadFile(path)
		if err != nil {
			return loaded, err
		}
		err = reg.Register(typ, func(decl config.TaskDecl, deps *task.Deps) (task.Task, error) {
			return &pluginTask{
				typ:    typ,
				path:   path,
				run:    run,
				deps:   deps,
				always: decl.Bool("always", false),
			}, nil
		})
		if err != nil {
			return loaded, fmt.Errorf("plugin: %s: %w", path, err)
		}
		loaded = append(loaded, Loaded{Type: typ, Path: path})
	}
	return loaded, nil
}

// runFunc is the interpreted Run function bridged into native code.
type runFunc func(vars map[string]string) (string, error)

func loadFile(path string) (string, runFunc, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return "", nil, fmt.Errorf("plugin: %s is empty", path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return "", nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}

	typ, err := callTaskType(i, path)
	if err != nil {
		return "", nil, err
	}
	run, err := bridgeRun(i, path)
	if err != nil {
		return "", nil, err
	}
	return typ, run, nil
}

func callTaskType(i *interp.Interpreter, path string) (string, error) {
	v, err := i.Eval(taskTypeFuncName)
	if err != nil {
		return "", fmt.Errorf("plugin: %s must define %s() string: %w", path, taskTypeFuncName, err)
	}
	if v.Kind() != reflect.Func {
		return "", fmt.Errorf("plugin: %s: %s is not a function", path, taskTypeFuncName)
	}
	results := v.Call(nil)
	if len(results) != 1 || results[0].Kind() != reflect.String {
		return "", fmt.Errorf("plugin: %s: %s must return a string", path, taskTypeFuncName)
	}
	typ := results[0].String()
	if typ == "" {
		return "", fmt.Errorf("plugin: %s: %s returned an empty type name", path, taskTypeFuncName)
	}
	return typ, nil
}

func bridgeRun(i *interp.Interpreter, path string) (runFunc, error) {
	v, err := i.Eval(runFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s(map[string]string) (string, error): %w", path, runFuncName, err)
	}
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("plugin: %s: %s is not a function", path, runFuncName)
	}
	fn := v
	return func(vars map[string]string) (string, error) {
		results := fn.Call([]reflect.Value{reflect.ValueOf(vars)})
		if len(results) != 2 {
			return "", fmt.Errorf("%s must return (string, error)", runFuncName)
		}
		msg, _ := results[0].Interface().(string)
		if !results[1].IsNil() {
			if e, ok := results[1].Interface().(error); ok {
				return msg, e
			}
			return msg, fmt.Errorf("%s returned a non-error second value", runFuncName)
		}
		return msg, nil
	}, nil
}
