// Package semver implements the version model used by the bump engine:
// parsing, canonical formatting, and ordering of MAJOR.MINOR.PATCH versions
// with an optional prerelease suffix of the form "-<tag><number>" (e.g.
// "1.2.4-a1"). It also defines the ordered increment kinds and a small
// range-specifier language used by precondition checks.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
)

// Prerelease is the unstable suffix of a version: an alphabetic tag plus a
// numeric counter ("a1" → Tag "a", Num 1). The tag may be empty ("1.2.3-0").
type Prerelease struct {
	Tag string
	Num int
}

// Version is an immutable semantic version. A nil Pre means the version is a
// release; a non-nil Pre marks it as an unreleased prerelease.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   *Prerelease
}

// ParseError reports version text that does not match the expected shape.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Text, e.Reason)
}

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([A-Za-z]*)(\d+))?$`)

// Parse converts text into a Version. Accepted shapes are "M.m.p" and
// "M.m.p-<tag><number>" where tag is alphabetic and number is decimal.
func Parse(text string) (Version, error) {
	m := versionRe.FindStringSubmatch(text)
	if m == nil {
		return Version{}, &ParseError{Text: text, Reason: "expected MAJOR.MINOR.PATCH[-TAG<N>]"}
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, &ParseError{Text: text, Reason: "major overflows"}
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, &ParseError{Text: text, Reason: "minor overflows"}
	}
	patch, err := strconv.Atoi(m[3])
	if err != nil {
		return Version{}, &ParseError{Text: text, Reason: "patch overflows"}
	}
	v := Version{Major: major, Minor: minor, Patch: patch}
	if m[5] != "" {
		num, err := strconv.Atoi(m[5])
		if err != nil {
			return Version{}, &ParseError{Text: text, Reason: "prerelease number overflows"}
		}
		v.Pre = &Prerelease{Tag: m[4], Num: num}
	}
	return v, nil
}

// MustParse is Parse for literals in tests and defaults; it panics on error.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the canonical form, the inverse of Parse.
func (v Version) String() string {
	if v.Pre == nil {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d.%d-%s%d", v.Major, v.Minor, v.Patch, v.Pre.Tag, v.Pre.Num)
}

// IsPrerelease reports whether the version carries a prerelease suffix.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil
}

// Compare orders two versions: -1 if a < b, 0 if equal, +1 if a > b.
// At equal (major, minor, patch) a release sorts above any prerelease;
// prereleases are ordered by their number.
func Compare(a, b Version) int {
	if c := cmpInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := cmpInt(a.Patch, b.Patch); c != 0 {
		return c
	}
	switch {
	case a.Pre == nil && b.Pre == nil:
		return 0
	case a.Pre == nil:
		return 1
	case b.Pre == nil:
		return -1
	}
	return cmpInt(a.Pre.Num, b.Pre.Num)
}

// Equal reports whether v and o compare as the same version.
func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
