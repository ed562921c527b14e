// Package bump computes the next semantic version for a requested increment
// kind. The engine is pure: it never touches files, git, or the network.
// Persisting the result is the bump task's job.
package bump

import (
	"fmt"

	"github.com/lucasnoah/yabs/internal/semver"
)

// Policy carries the knobs that influence a bump decision.
type Policy struct {
	// PrereleasePrefix is the alphabetic tag attached when a postrelease
	// bump starts a new prerelease cycle.
	PrereleasePrefix string
	// PrereleaseStartIdx is the counter a new prerelease cycle starts at.
	PrereleaseStartIdx int
	// Force overrides the MaxIncrement ceiling.
	Force bool
	// ForcePreBump advances an untagged prerelease even on an implicit
	// postrelease bump.
	ForcePreBump bool
	// IsCurrentTagged is true when an annotated tag already exists for the
	// current version.
	IsCurrentTagged bool
	// Explicit is true when the effective increment was declared on the
	// task itself rather than inherited from the --inc argument.
	Explicit bool
	// MaxIncrement is the most severe increment the workflow allows.
	MaxIncrement semver.Increment
}

// DefaultPolicy returns the policy the original workflow format documents:
// prefix "a", start index 1, ceiling "minor".
func DefaultPolicy() Policy {
	return Policy{
		PrereleasePrefix:   "a",
		PrereleaseStartIdx: 1,
		MaxIncrement:       semver.IncMinor,
	}
}

// Result is the output of a bump computation. NoOp is set when the engine
// deliberately returns the input unchanged (an implicit postrelease bump of
// an untagged prerelease, which a later task in the same run is presumed to
// tag).
type Result struct {
	Version semver.Version
	NoOp    bool
}

// CeilingError reports a requested increment above the configured ceiling.
type CeilingError struct {
	Requested semver.Increment
	Max       semver.Increment
}

func (e *CeilingError) Error() string {
	return fmt.Sprintf("increment %q exceeds max_increment %q (pass --force to override)", e.Requested, e.Max)
}

// PrereleaseOfReleaseError is returned when a plain prerelease bump is
// requested on a version without a prerelease suffix: that would have to go
// backwards. A postrelease bump is the right request in that situation.
type PrereleaseOfReleaseError struct {
	Version semver.Version
}

func (e *PrereleaseOfReleaseError) Error() string {
	return fmt.Sprintf("'prerelease' bump of %s would go backwards; use 'postrelease'", e.Version)
}

// Next computes the version that follows current for the requested increment
// under pol. It never returns a version comparing below current, except that
// Result.NoOp marks the deliberate unchanged case.
func Next(current semver.Version, requested semver.Increment, pol Policy) (Result, error) {
	if requested.Exceeds(pol.MaxIncrement) && !pol.Force {
		return Result{}, &CeilingError{Requested: requested, Max: pol.MaxIncrement}
	}

	switch requested {
	case semver.IncMajor:
		return Result{Version: semver.Version{Major: current.Major + 1}}, nil

	case semver.IncMinor:
		return Result{Version: semver.Version{Major: current.Major, Minor: current.Minor + 1}}, nil

	case semver.IncPatch:
		if current.Pre != nil {
			// The untagged prerelease becomes the release it was staged
			// for: drop the suffix without incrementing.
			return Result{Version: semver.Version{Major: current.Major, Minor: current.Minor, Patch: current.Patch}}, nil
		}
		return Result{Version: semver.Version{Major: current.Major, Minor: current.Minor, Patch: current.Patch + 1}}, nil

	case semver.IncPrerelease:
		if current.Pre == nil {
			return Result{}, &PrereleaseOfReleaseError{Version: current}
		}
		return Result{Version: nextPrerelease(current)}, nil

	case semver.IncPostrelease:
		if current.Pre == nil {
			v := semver.Version{
				Major: current.Major,
				Minor: current.Minor,
				Patch: current.Patch + 1,
				Pre:   &semver.Prerelease{Tag: pol.PrereleasePrefix, Num: pol.PrereleaseStartIdx},
			}
			return Result{Version: v}, nil
		}
		if !pol.IsCurrentTagged && !pol.Explicit && !pol.ForcePreBump {
			// The pending prerelease is presumed about to be tagged by a
			// later step of this run; advancing it now would leave a gap
			// in the tag sequence.
			return Result{Version: current, NoOp: true}, nil
		}
		return Result{Version: nextPrerelease(current)}, nil
	}

	return Result{}, &semver.UnknownIncrementError{Name: requested.String()}
}

// nextPrerelease advances only the prerelease counter, keeping the triple
// and tag unchanged.
func nextPrerelease(v semver.Version) semver.Version {
	return semver.Version{
		Major: v.Major,
		Minor: v.Minor,
		Patch: v.Patch,
		Pre:   &semver.Prerelease{Tag: v.Pre.Tag, Num: v.Pre.Num + 1},
	}
}
