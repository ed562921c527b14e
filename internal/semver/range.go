package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a version specifier such as ">=1.22", "~1.2.3" or ">=1.2,<2.0".
// Comma-separated clauses are ANDed. Supported operators: ==, >=, >, <=, <,
// ~ (same minor) and ^ (same major); a bare version means exact match.
// Partial versions ("1.2") are padded with zeros.
type Range struct {
	text    string
	clauses []clause
}

type clause struct {
	op   string
	v    Version
	prec int // number of components given in the clause text
}

// ParseRange compiles a specifier string into a Range.
func ParseRange(text string) (Range, error) {
	r := Range{text: text}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Range{}, &ParseError{Text: text, Reason: "empty range clause"}
		}
		op := "=="
		for _, candidate := range []string{">=", "<=", "==", ">", "<", "~", "^"} {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				part = strings.TrimSpace(part[len(candidate):])
				break
			}
		}
		v, prec, err := parsePartial(part)
		if err != nil {
			return Range{}, err
		}
		r.clauses = append(r.clauses, clause{op: op, v: v, prec: prec})
	}
	return r, nil
}

// MustParseRange panics on a malformed specifier.
func MustParseRange(text string) Range {
	r, err := ParseRange(text)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Range) String() string {
	return r.text
}

// Match reports whether v satisfies every clause of the range.
func (r Range) Match(v Version) bool {
	for _, c := range r.clauses {
		if !c.match(v) {
			return false
		}
	}
	return true
}

func (c clause) match(v Version) bool {
	switch c.op {
	case "==":
		return Compare(v, c.v) == 0
	case ">":
		return Compare(v, c.v) > 0
	case ">=":
		return Compare(v, c.v) >= 0
	case "<":
		return Compare(v, c.v) < 0
	case "<=":
		return Compare(v, c.v) <= 0
	case "~":
		upper := Version{Major: c.v.Major, Minor: c.v.Minor + 1}
		if c.prec == 1 {
			upper = Version{Major: c.v.Major + 1}
		}
		return Compare(v, c.v) >= 0 && Compare(v, upper) < 0
	case "^":
		upper := Version{Major: c.v.Major + 1}
		if c.v.Major == 0 {
			upper = Version{Minor: c.v.Minor + 1}
		}
		return Compare(v, c.v) >= 0 && Compare(v, upper) < 0
	}
	return false
}

// parsePartial parses "1", "1.2" or a full version, returning the number of
// components that were present.
func parsePartial(text string) (Version, int, error) {
	if strings.Contains(text, "-") || strings.Count(text, ".") >= 2 {
		v, err := Parse(text)
		return v, 3, err
	}
	parts := strings.Split(text, ".")
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, 0, &ParseError{Text: text, Reason: fmt.Sprintf("bad component %q", p)}
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, len(parts), nil
}
