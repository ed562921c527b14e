package cli

import (
	"fmt"
	"io"

	"github.com/lucasnoah/yabs/internal/config"
	"github.com/lucasnoah/yabs/internal/plugin"
	"github.com/lucasnoah/yabs/internal/settings"
	"github.com/lucasnoah/yabs/internal/task"
	"github.com/lucasnoah/yabs/internal/ui"
	"github.com/lucasnoah/yabs/internal/vsource"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [workflow]",
	Short: "Show the workflow configuration and current version",
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

		wf, err := config.Load(path)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Workflow:      %s\n", path)
		if wf.Config.Repo != "" {
			fmt.Fprintf(w, "Repository:    %s\n", wf.Config.Repo)
		}
		fmt.Fprintf(w, "Branches:      %v\n", []string(wf.Config.Branches))
		fmt.Fprintf(w, "Max increment: %s\n", wf.Config.MaxIncrement)

		if len(wf.Config.Version) > 0 {
			mgr, err := vsource.FromConfig(wf.Config.Version)
			if err != nil {
				return err
			}
			v, err := mgr.ReadMaster()
			if err != nil {
				fmt.Fprintf(w, "Version:       unreadable (%v)\n", err)
			} else {
				fmt.Fprintf(w, "Version:       %s\n", v)
			}
			for i, src := range mgr.Sources() {
				role := "secondary"
				if i == 0 {
					role = "master"
				}
				fmt.Fprintf(w, "  source %d:    %s (%s)\n", i+1, src.Describe(), role)
			}
			if err := mgr.Verify(); err != nil {
				fmt.Fprintf(w, "  WARNING:     %v\n", err)
			}
		}

		fmt.Fprintf(w, "Tasks:\n")
		for i, decl := range wf.Tasks {
			fmt.Fprintf(w, "  %d. %s\n", i+1, decl.Type)
		}

		if errs := config.Validate(wf); len(errs) > 0 {
			fmt.Fprintf(w, "Problems:\n")
			for _, e := range errs {
				fmt.Fprintf(w, "  - %s\n", e.Error())
			}
			return fmt.Errorf("workflow has %d problem(s)", len(errs))
		}

		deps, err := buildDeps(wf, settings.LoadUser(), ui.New(io.Discard, 0))
		if err != nil {
			return err
		}
		reg := task.NewRegistry()
		if _, err := plugin.RegisterDir(reg, wf.Config.PluginDir); err != nil {
			return err
		}
		for _, decl := range wf.Tasks {
			if _, err := reg.Resolve(decl, deps); err != nil {
				fmt.Fprintf(w, "Problems:\n  - %v\n", err)
				return err
			}
		}
		fmt.Fprintln(w, "Workflow OK")
		return nil
	},
}
