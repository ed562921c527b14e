package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

// Exit codes. Usage errors come from cobra flag and argument parsing,
// interrupted means the run was stopped by SIGINT.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitInterrupted = 3
)

// errInterrupted marks a run stopped by the user.
var errInterrupted = errors.New("interrupted")

// usageError wraps flag and argument parse failures so Execute can map
// them to their own exit code.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "yabs",
	Short: "yabs - yet another build script",
	Long: `yabs automates the grunt work of cutting a release: it checks
preconditions, bumps the project version across all version files, commits,
tags, pushes, and publishes to GitHub, PyPI, and winget, driven by a
yabs.yaml workflow in the project root.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, errInterrupted) {
		fmt.Fprintln(os.Stderr, "aborted by user")
		return ExitInterrupted
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	var usage *usageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitError
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
