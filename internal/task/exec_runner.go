package task

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecRunner implements CommandRunner using exec.CommandContext. Commands
// are argv lists, never shell strings.
type ExecRunner struct {
	Dir string
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if ctx.Err() == context.DeadlineExceeded {
		return text, fmt.Errorf("%s: timed out", name)
	}
	if err != nil {
		return text, fmt.Errorf("%s %s: %s: %w", name, strings.Join(args, " "), text, err)
	}
	return text, nil
}

// ToolVersion asks a tool for its version, trying `--version` first and
// `version` as a fallback (the go tool has no --version flag).
func (r *ExecRunner) ToolVersion(name string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := r.Run(ctx, name, "--version")
	if err == nil {
		return out, nil
	}
	out2, err2 := r.Run(ctx, name, "version")
	if err2 == nil {
		return out2, nil
	}
	return out, err
}
