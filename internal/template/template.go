// Package template expands {name} placeholders against the task context's
// variables. This is plain text substitution kept outside the core: task
// options like commit messages and tag names pass through it right before
// use.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Expand replaces every {name} placeholder in tmpl with vars[name].
// Unknown placeholders make the whole expansion fail so a typo never ends
// up in a commit message or tag.
func Expand(tmpl string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		if val, ok := vars[name]; ok {
			return val
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("undefined template variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
