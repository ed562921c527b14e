package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasnoah/yabs/internal/history"
	"github.com/lucasnoah/yabs/internal/settings"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past releases, or the task log of one run",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		st := settings.LoadUser()
		path := st.HistoryDB
		if path == "" {
			p, err := history.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		store, err := history.Open(path)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return &usageError{err: fmt.Errorf("invalid run id %q", args[0])}
			}
			return printRunTasks(cmd, store, id)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		return printRuns(cmd, store, limit)
	},
}

func printRuns(cmd *cobra.Command, store *history.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-5s %-20s %-10s %-18s %-4s %s\n",
		"ID", "STARTED", "STATUS", "VERSION", "DRY", "WORKFLOW")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, r := range runs {
		delta := r.OrgVersion
		if r.Version != "" && r.Version != r.OrgVersion {
			delta = fmt.Sprintf("%s => %s", r.OrgVersion, r.Version)
		}
		dry := ""
		if r.DryRun {
			dry = "yes"
		}
		fmt.Fprintf(w, "%-5d %-20s %-10s %-18s %-4s %s\n",
			r.ID, r.StartedAt, r.Status, delta, dry, r.Workflow)
	}
	return nil
}

func printRunTasks(cmd *cobra.Command, store *history.Store, id int64) error {
	events, err := store.ListTasks(id)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintf(w, "No tasks recorded for run %d.\n", id)
		return nil
	}
	for _, e := range events {
		line := fmt.Sprintf("%2d. %-16s %s", e.Seq+1, e.TaskType, e.Status)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
}
