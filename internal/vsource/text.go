package vsource

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// TextSource finds the version in a plain text file via a regular
// expression with one capture group. On write, the matched line is either
// rewritten from a template (with a {version} placeholder) or patched in
// place by replacing the captured group.
type TextSource struct {
	path     string
	match    *regexp.Regexp
	template string
}

// NewText builds a text source. The match pattern must contain exactly one
// capture group holding the version.
func NewText(path, match, template string) (*TextSource, error) {
	if path == "" {
		return nil, fmt.Errorf("text source: file is required")
	}
	re, err := regexp.Compile(match)
	if err != nil {
		return nil, fmt.Errorf("text source: bad match pattern: %w", err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("text source: match pattern must have exactly one capture group, has %d", re.NumSubexp())
	}
	if template != "" && !strings.Contains(template, "{version}") {
		return nil, fmt.Errorf("text source: template must contain {version}")
	}
	return &TextSource{path: path, match: re, template: template}, nil
}

func (s *TextSource) Describe() string {
	return "text:" + s.path
}

func (s *TextSource) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if m := s.match.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("no line in %s matches %q", s.path, s.match)
}

func (s *TextSource) Write(version string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		m := s.match.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		if s.template != "" {
			lines[i] = strings.ReplaceAll(s.template, "{version}", version)
		} else {
			// replace only the captured group
			lines[i] = line[:m[2]] + version + line[m[3]:]
		}
		found = true
		break
	}
	if !found {
		return fmt.Errorf("no line in %s matches %q", s.path, s.match)
	}
	return writeFileAtomic(s.path, []byte(strings.Join(lines, "\n")))
}
