// Package ui renders leveled, styled terminal output. Verbosity runs 0–6
// (default 3); each message carries a level and is dropped when the printer
// is quieter than that level.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Message levels, most severe first. A message prints when the printer's
// verbosity is at or above its level.
const (
	LevelError = 1
	LevelWarn  = 2
	LevelInfo  = 3
	LevelDebug = 4
	LevelTrace = 5
)

var (
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleDry   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleSkip  = lipgloss.NewStyle().Faint(true)
	styleDebug = lipgloss.NewStyle().Faint(true)
)

// Printer writes styled messages up to a verbosity level.
type Printer struct {
	out     io.Writer
	level   int
	noColor bool
}

// New creates a Printer at the given verbosity. Levels outside 0–6 are
// clamped.
func New(out io.Writer, level int) *Printer {
	if level < 0 {
		level = 0
	}
	if level > 6 {
		level = 6
	}
	return &Printer{out: out, level: level}
}

// SetNoColor disables styling, leaving plain prefixed text.
func (p *Printer) SetNoColor(v bool) {
	p.noColor = v
}

// Level returns the printer's verbosity.
func (p *Printer) Level() int {
	return p.level
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if p.noColor {
		return s
	}
	return style.Render(s)
}

func (p *Printer) printf(level int, prefix string, style lipgloss.Style, format string, args ...any) {
	if p.level < level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if prefix != "" {
		fmt.Fprintf(p.out, "%s %s\n", p.render(style, prefix), msg)
		return
	}
	fmt.Fprintln(p.out, msg)
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.printf(LevelError, "ERROR", styleError, format, args...)
}

// Warnf prints a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.printf(LevelWarn, "WARN ", styleWarn, format, args...)
}

// Okf prints a success line.
func (p *Printer) Okf(format string, args ...any) {
	p.printf(LevelInfo, "OK   ", styleOK, format, args...)
}

// Infof prints an informational line.
func (p *Printer) Infof(format string, args ...any) {
	if p.level < LevelInfo {
		return
	}
	fmt.Fprintf(p.out, "%s\n", fmt.Sprintf(format, args...))
}

// Dryf prints an intended-but-not-performed action.
func (p *Printer) Dryf(format string, args ...any) {
	p.printf(LevelInfo, "DRY-RUN", styleDry, format, args...)
}

// Skipf prints a skipped-step line.
func (p *Printer) Skipf(format string, args ...any) {
	p.printf(LevelInfo, "SKIP ", styleSkip, format, args...)
}

// Debugf prints a diagnostic line.
func (p *Printer) Debugf(format string, args ...any) {
	p.printf(LevelDebug, "debug", styleDebug, format, args...)
}

// Response prints a command result plus its captured output, indented, the
// way external tool invocations are reported.
func (p *Printer) Response(level int, msg, output string) {
	if p.level < level {
		return
	}
	fmt.Fprintln(p.out, msg)
	output = strings.TrimSpace(output)
	if output == "" {
		return
	}
	for _, line := range strings.Split(output, "\n") {
		fmt.Fprintf(p.out, "    %s\n", line)
	}
}

// Badge renders a PASS/FAIL/SKIP tag for check reports.
func (p *Printer) Badge(passed, skipped bool) string {
	switch {
	case skipped:
		return p.render(styleSkip, "SKIP")
	case passed:
		return p.render(styleOK, "PASS")
	}
	return p.render(styleError, "FAIL")
}
