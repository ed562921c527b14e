package semver

import (
	"fmt"
	"strings"
)

// Increment is a bump kind, ordered by severity. The order matters: a
// configured ceiling ("max_increment") is compared against the requested
// kind using this ordering.
type Increment int

const (
	IncPostrelease Increment = iota
	IncPrerelease
	IncPatch
	IncMinor
	IncMajor
)

var incrementNames = [...]string{
	IncPostrelease: "postrelease",
	IncPrerelease:  "prerelease",
	IncPatch:       "patch",
	IncMinor:       "minor",
	IncMajor:       "major",
}

// UnknownIncrementError reports a name outside the increment enumeration.
type UnknownIncrementError struct {
	Name string
}

func (e *UnknownIncrementError) Error() string {
	return fmt.Sprintf("unknown increment %q (expected %s)", e.Name, strings.Join(IncrementNames(), ", "))
}

// ParseIncrement maps a name to its Increment kind.
func ParseIncrement(name string) (Increment, error) {
	for i, n := range incrementNames {
		if n == name {
			return Increment(i), nil
		}
	}
	return 0, &UnknownIncrementError{Name: name}
}

func (i Increment) String() string {
	if i < 0 || int(i) >= len(incrementNames) {
		return fmt.Sprintf("Increment(%d)", int(i))
	}
	return incrementNames[i]
}

// Exceeds reports whether the increment is more severe than max.
func (i Increment) Exceeds(max Increment) bool {
	return i > max
}

// IncrementNames returns all increment names in severity order.
func IncrementNames() []string {
	names := make([]string, len(incrementNames))
	copy(names, incrementNames[:])
	return names
}
