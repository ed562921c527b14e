package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/history"
	"github.com/lucasnoah/yabs/internal/hosting"
	"github.com/lucasnoah/yabs/internal/plugin"
	"github.com/lucasnoah/yabs/internal/runner"
	"github.com/lucasnoah/yabs/internal/semver"
	"github.com/lucasnoah/yabs/internal/settings"
	"github.com/lucasnoah/yabs/internal/task"
	"github.com/lucasnoah/yabs/internal/ui"
	"github.com/lucasnoah/yabs/internal/vcs"
	"github.com/lucasnoah/yabs/internal/vsource"
	"github.com/spf13/cobra"
)

const defaultWorkflow = "./yabs.yaml"

var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Execute a release workflow",
	Long: `Executes the tasks declared in the workflow file (default ./yabs.yaml)
in order, aborting at the first failure. Use -n to rehearse the whole
run without touching anything.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultWorkflow
		if len(args) == 1 {
			path = args[0]
		}

		inc, _ := cmd.Flags().GetString("inc")
		if inc != "" {
			if _, err := semver.ParseIncrement(inc); err != nil {
				return &usageError{err: fmt.Errorf("--inc: %w", err)}
			}
		}

		g := task.Globals{Inc: inc}
		g.DryRun, _ = cmd.Flags().GetBool("dry-run")
		g.Force, _ = cmd.Flags().GetBool("force")
		g.NoCheck, _ = cmd.Flags().GetBool("no-check")
		g.NoBump, _ = cmd.Flags().GetBool("no-bump")
		g.ForcePreBump, _ = cmd.Flags().GetBool("force-pre-bump")
		g.NoRelease, _ = cmd.Flags().GetBool("no-release")
		g.NoWingetRelease, _ = cmd.Flags().GetBool("no-winget-release")

		st := settings.LoadUser()
		out := newPrinter(cmd, st)

		wf, err := config.Load(path)
		if err != nil {
			return err
		}

		deps, err := buildDeps(wf, st, out)
		if err != nil {
			return err
		}

		reg := task.NewRegistry()
		loaded, err := plugin.RegisterDir(reg, wf.Config.PluginDir)
		if err != nil {
			return fmt.Errorf("loading plugins: %w", err)
		}
		for _, p := range loaded {
			out.Debugf("plugin task %q from %s", p.Type, p.Path)
		}

		store := openHistory(st, out)
		if store != nil {
			defer store.Close()
		}

		r, err := runner.New(wf, reg, deps, runner.Options{
			WorkflowPath: path,
			Globals:      g,
			History:      store,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := r.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return errInterrupted
			}
			return err
		}
		return nil
	},
}

// newPrinter builds the leveled printer from settings and the counted
// -v/-q flags.
func newPrinter(cmd *cobra.Command, st settings.Settings) *ui.Printer {
	level := st.Verbose
	v, _ := cmd.Flags().GetCount("verbose")
	q, _ := cmd.Flags().GetCount("quiet")
	level += v - q
	if level < 0 {
		level = 0
	}
	if level > 6 {
		level = 6
	}
	out := ui.New(cmd.OutOrStdout(), level)
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor || st.NoColor {
		out.SetNoColor(true)
	}
	return out
}

// buildDeps wires the external collaborators the tasks need. Collaborators
// the workflow cannot use stay nil so task factories can complain precisely.
func buildDeps(wf *config.Workflow, st settings.Settings, out *ui.Printer) (*task.Deps, error) {
	deps := &task.Deps{
		Config:      wf.Config,
		Git:         vcs.NewClient(&vcs.ExecGit{}, ""),
		Exec:        &task.ExecRunner{},
		Out:         out,
		SelfVersion: version,
	}

	if len(wf.Config.Version) > 0 {
		mgr, err := vsource.FromConfig(wf.Config.Version)
		if err != nil {
			return nil, fmt.Errorf("version sources: %w", err)
		}
		deps.Versions = mgr
	}

	if wf.Config.Repo != "" {
		tokenVar := wf.Config.GHAuth.OAuthTokenVar
		if tokenVar == "" {
			tokenVar = st.TokenVar
		}
		deps.Host = hosting.NewClient(&hosting.ExecRunner{TokenVar: tokenVar}, wf.Config.Repo)
	}
	return deps, nil
}

// openHistory opens the run-history store. History is best-effort: a
// missing or broken store degrades to a warning, never a failed run.
func openHistory(st settings.Settings, out *ui.Printer) *history.Store {
	path := st.HistoryDB
	if path == "" {
		p, err := history.DefaultPath()
		if err != nil {
			out.Warnf("run history unavailable: %v", err)
			return nil
		}
		path = p
	}
	store, err := history.Open(path)
	if err != nil {
		out.Warnf("run history unavailable: %v", err)
		return nil
	}
	return store
}

func init() {
	runCmd.Flags().String("inc", "", "Version increment: major, minor, patch, or postrelease")
	runCmd.Flags().BoolP("dry-run", "n", false, "Rehearse the run without changing anything")
	runCmd.Flags().CountP("verbose", "v", "Increase output verbosity (repeatable)")
	runCmd.Flags().CountP("quiet", "q", "Decrease output verbosity (repeatable)")
	runCmd.Flags().Bool("force", false, "Override the max_increment ceiling")
	runCmd.Flags().Bool("no-check", false, "Downgrade failed precondition checks to warnings")
	runCmd.Flags().Bool("no-bump", false, "Run bump tasks in dry-run mode")
	runCmd.Flags().Bool("force-pre-bump", false, "Bump the prerelease counter even when untagged")
	runCmd.Flags().Bool("no-release", false, "Skip release tasks")
	runCmd.Flags().Bool("no-winget-release", false, "Skip winget release tasks")
	runCmd.Flags().Bool("no-color", false, "Disable colored output")
}
