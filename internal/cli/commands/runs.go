package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show construction run history",
		Long: `List recent construction runs from the local state database. With a
run ID, show the per-entity outcomes of that run in build order.`,
		Example: `  # Recent runs
  datavault runs

  # Entity outcomes of one run
  datavault runs 4f6c2a1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, args, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, args []string, limit int) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	store := eng.Store()
	if store == nil {
		return fmt.Errorf("run history is not enabled (no state path configured)")
	}

	if len(args) == 1 {
		return showRun(store, args[0])
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Status", "Dialect", "Started", "Duration", "Error"})
	for _, r := range runs {
		duration := ""
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{r.ID, r.Status, r.Dialect, r.StartedAt.Format(time.RFC3339), duration, r.Error})
	}
	t.Render()
	return nil
}

func showRun(store state.Store, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: %s (dialect %s)\n", run.ID, run.Status, run.Dialect)
	if run.Error != "" {
		fmt.Printf("Error: %s\n", run.Error)
	}

	entityRuns, err := store.ListEntityRuns(runID)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Entity", "Kind", "Status", "Duration", "Error"})
	for _, er := range entityRuns {
		t.AppendRow(table.Row{er.Position + 1, er.Entity, er.Kind, er.Status,
			fmt.Sprintf("%dms", er.ExecutionMS), er.Error})
	}
	t.Render()
	return nil
}
