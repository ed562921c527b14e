package vsource

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLSource finds the version under a dotted entry path in a YAML file.
// Writes go through the yaml node tree, so comments and key order in the
// file survive a version bump.
type YAMLSource struct {
	path  string
	entry []string
}

// NewYAML builds a YAML source. An empty entry defaults to "version".
func NewYAML(path, entry string) (*YAMLSource, error) {
	if path == "" {
		return nil, fmt.Errorf("yaml source: file is required")
	}
	if entry == "" {
		entry = "version"
	}
	return &YAMLSource{path: path, entry: strings.Split(entry, ".")}, nil
}

func (s *YAMLSource) Describe() string {
	return "yaml:" + s.path
}

func (s *YAMLSource) Read() (string, error) {
	_, node, err := s.load()
	if err != nil {
		return "", err
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s: entry %q is not a scalar", s.path, strings.Join(s.entry, "."))
	}
	return node.Value, nil
}

func (s *YAMLSource) Write(version string) error {
	doc, node, err := s.load()
	if err != nil {
		return err
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%s: entry %q is not a scalar", s.path, strings.Join(s.entry, "."))
	}
	node.Value = version
	node.Tag = "!!str"

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

// load parses the file and resolves the entry path to its value node.
func (s *YAMLSource) load() (*yaml.Node, *yaml.Node, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil, fmt.Errorf("%s: empty document", s.path)
	}
	node := doc.Content[0]
	for _, key := range s.entry {
		node, err = mappingValue(node, key)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s.path, err)
		}
	}
	return &doc, node, nil
}

func mappingValue(node *yaml.Node, key string) (*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("entry %q: parent is not a mapping", key)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1], nil
		}
	}
	return nil, fmt.Errorf("no entry %q", key)
}
