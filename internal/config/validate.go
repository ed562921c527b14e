package config

import (
	"fmt"
	"strings"

	"github.com/lucasnoah/yabs/internal/semver"
)

// ValidationError represents a single validation issue with a workflow file.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedSourceTypes is the set of valid version source types.
var recognizedSourceTypes = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

// tasksNeedingRepo are task types that talk to the hosting service and
// therefore require config.repo.
var tasksNeedingRepo = map[string]bool{
	"github_release": true,
	"winget_release": true,
}

// tasksNeedingVersion are task types that read or write the project
// version and therefore require at least one version source.
var tasksNeedingVersion = map[string]bool{
	"bump": true,
}

// Validate checks a workflow for structural and semantic errors. It returns
// every problem found, not just the first, so a broken file can be fixed in
// one pass. Task type names are not validated here: the runner resolves
// them against the registry, which also knows plugin-provided types.
func Validate(wf *Workflow) []ValidationError {
	var errs []ValidationError
	c := wf.Config

	if len(wf.Tasks) == 0 {
		errs = append(errs, ValidationError{Field: "tasks", Message: "at least one task is required"})
	}

	if _, err := semver.ParseIncrement(c.MaxIncrement); err != nil {
		errs = append(errs, ValidationError{
			Field:   "config.max_increment",
			Message: err.Error(),
		})
	}

	if c.Repo != "" && !strings.Contains(c.Repo, "/") {
		errs = append(errs, ValidationError{
			Field:   "config.repo",
			Message: fmt.Sprintf("expected OWNER/PROJECT, got %q", c.Repo),
		})
	}

	for i, src := range c.Version {
		prefix := fmt.Sprintf("config.version[%d]", i)
		if !recognizedSourceTypes[src.Type] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".type",
				Message: fmt.Sprintf("unrecognized source type %q", src.Type),
			})
		}
		if src.File == "" {
			errs = append(errs, ValidationError{
				Field:   prefix + ".file",
				Message: "is required",
			})
		}
		if src.Type == "text" && src.Match == "" {
			errs = append(errs, ValidationError{
				Field:   prefix + ".match",
				Message: "text sources require a match pattern",
			})
		}
	}

	needRepo := false
	needVersion := false
	for _, t := range wf.Tasks {
		if tasksNeedingRepo[t.Type] {
			needRepo = true
		}
		if tasksNeedingVersion[t.Type] {
			needVersion = true
		}
	}
	if needRepo && c.Repo == "" {
		errs = append(errs, ValidationError{
			Field:   "config.repo",
			Message: "is required by github_release and winget_release tasks",
		})
	}
	if needVersion && len(c.Version) == 0 {
		errs = append(errs, ValidationError{
			Field:   "config.version",
			Message: "at least one version source is required by the bump task",
		})
	}

	return errs
}
