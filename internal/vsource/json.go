package vsource

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// JSONSource finds the version under a dotted entry path in a JSON file,
// e.g. "version" or "meta.version".
type JSONSource struct {
	path  string
	entry []string
}

// NewJSON builds a JSON source. An empty entry defaults to "version".
func NewJSON(path, entry string) (*JSONSource, error) {
	if path == "" {
		return nil, fmt.Errorf("json source: file is required")
	}
	if entry == "" {
		entry = "version"
	}
	return &JSONSource{path: path, entry: strings.Split(entry, ".")}, nil
}

func (s *JSONSource) Describe() string {
	return "json:" + s.path
}

func (s *JSONSource) Read() (string, error) {
	root, err := s.load()
	if err != nil {
		return "", err
	}
	node := any(root)
	for _, key := range s.entry {
		m, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%s: %s is not an object", s.path, strings.Join(s.entry, "."))
		}
		node, ok = m[key]
		if !ok {
			return "", fmt.Errorf("%s: no entry %q", s.path, strings.Join(s.entry, "."))
		}
	}
	v, ok := node.(string)
	if !ok {
		return "", fmt.Errorf("%s: entry %q is not a string", s.path, strings.Join(s.entry, "."))
	}
	return v, nil
}

func (s *JSONSource) Write(version string) error {
	root, err := s.load()
	if err != nil {
		return err
	}
	m := root
	for _, key := range s.entry[:len(s.entry)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %s is not an object", s.path, strings.Join(s.entry, "."))
		}
		m = next
	}
	last := s.entry[len(s.entry)-1]
	if _, ok := m[last]; !ok {
		return fmt.Errorf("%s: no entry %q", s.path, strings.Join(s.entry, "."))
	}
	m[last] = version

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

func (s *JSONSource) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return root, nil
}
