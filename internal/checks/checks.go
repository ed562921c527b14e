// Package checks implements the precondition checker: a registry of named
// go/no-go predicates evaluated before the workflow mutates anything. Every
// predicate runs independently, one failure never hides another, and the
// full report is always produced. The caller decides whether a failed
// report aborts the run or is downgraded to warnings.
package checks

import "fmt"

// Result is the outcome of one predicate.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped"`
	Message string `json:"message"`
}

// Pass builds a passing result.
func Pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Message: sprintf(format, args)}
}

// Fail builds a failing result.
func Fail(name, format string, args ...any) Result {
	return Result{Name: name, Message: sprintf(format, args)}
}

// Skip builds a skipped result; skipped checks do not count as passed.
func Skip(name, format string, args ...any) Result {
	return Result{Name: name, Skipped: true, Message: sprintf(format, args)}
}

// Report is an ordered sequence of results.
type Report []Result

// OK reports the aggregate verdict: true iff no non-skipped check failed.
func (r Report) OK() bool {
	for _, res := range r {
		if !res.Skipped && !res.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed (non-skipped) results.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r {
		if !res.Skipped && !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Executed counts the checks that actually ran.
func (r Report) Executed() int {
	n := 0
	for _, res := range r {
		if !res.Skipped {
			n++
		}
	}
	return n
}

// Probe is a single precondition predicate. Probes are read-only and
// side-effect free.
type Probe func() Result

// Checker is an ordered registry of named probes.
type Checker struct {
	order  []string
	probes map[string]Probe
}

// New returns an empty checker.
func New() *Checker {
	return &Checker{probes: make(map[string]Probe)}
}

// Add registers a probe under name, replacing an earlier probe of the same
// name but keeping its position.
func (c *Checker) Add(name string, p Probe) {
	if _, ok := c.probes[name]; !ok {
		c.order = append(c.order, name)
	}
	c.probes[name] = p
}

// AddSkip registers a probe that always reports skipped. Used for checks
// that are known but not configured, so the report still lists them.
func (c *Checker) AddSkip(name, reason string) {
	c.Add(name, func() Result { return Skip(name, "%s", reason) })
}

// Names returns the registered check names in registration order.
func (c *Checker) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Run evaluates every probe sequentially and returns the full report.
func (c *Checker) Run() Report {
	report := make(Report, 0, len(c.order))
	for _, name := range c.order {
		report = append(report, c.probes[name]())
	}
	return report
}

func sprintf(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
