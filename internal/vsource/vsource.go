// Package vsource reads and writes the project version inside project
// files. A workflow lists one or more sources; the first is the master
// copy and the others are kept in sync with it. Sources deal in plain
// version strings and never interpret them.
package vsource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/yabs/internal/config"
)

// Source is one location holding the project version.
type Source interface {
	// Read returns the version string currently stored.
	Read() (string, error)
	// Write stores a new version string.
	Write(version string) error
	// Describe names the source for messages, e.g. "text:src/_version.py".
	Describe() string
}

// Manager owns the configured sources. The first source is the master.
type Manager struct {
	sources []Source
}

// FromConfig builds a manager from the workflow's version section.
func FromConfig(decls []config.VersionSource) (*Manager, error) {
	if len(decls) == 0 {
		return nil, fmt.Errorf("no version sources configured")
	}
	m := &Manager{}
	for i, d := range decls {
		var (
			src Source
			err error
		)
		switch d.Type {
		case "text":
			src, err = NewText(d.File, d.Match, d.Template)
		case "json":
			src, err = NewJSON(d.File, d.Entry)
		case "yaml":
			src, err = NewYAML(d.File, d.Entry)
		default:
			err = fmt.Errorf("unknown source type %q", d.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("version source %d: %w", i, err)
		}
		m.sources = append(m.sources, src)
	}
	return m, nil
}

// NewManager builds a manager from ready-made sources (used in tests).
func NewManager(sources ...Source) *Manager {
	return &Manager{sources: sources}
}

// Master returns the first configured source.
func (m *Manager) Master() Source {
	return m.sources[0]
}

// Sources returns all configured sources in declaration order.
func (m *Manager) Sources() []Source {
	return m.sources
}

// ReadMaster returns the version stored in the master source.
func (m *Manager) ReadMaster() (string, error) {
	return m.sources[0].Read()
}

// WriteAll stores the version in every source, master first. The first
// failure aborts; earlier writes are not rolled back.
func (m *Manager) WriteAll(version string) error {
	for _, s := range m.sources {
		if err := s.Write(version); err != nil {
			return fmt.Errorf("%s: %w", s.Describe(), err)
		}
	}
	return nil
}

// Verify reads every source and reports the ones that disagree with the
// master.
func (m *Manager) Verify() error {
	master, err := m.ReadMaster()
	if err != nil {
		return fmt.Errorf("%s: %w", m.sources[0].Describe(), err)
	}
	var stale []string
	for _, s := range m.sources[1:] {
		v, err := s.Read()
		if err != nil {
			return fmt.Errorf("%s: %w", s.Describe(), err)
		}
		if v != master {
			stale = append(stale, fmt.Sprintf("%s has %q", s.Describe(), v))
		}
	}
	if len(stale) > 0 {
		return fmt.Errorf("version sources out of sync with master (%q): %s",
			master, strings.Join(stale, "; "))
	}
	return nil
}

// writeFileAtomic writes data to path through a temp file in the same
// directory so readers never see a half-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode())
	}
	return os.Rename(tmpName, path)
}
