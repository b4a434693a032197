package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cadence/internal/evaluation/persistence"
	appconfig "github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

var traceJSON bool

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect stored decision traces",
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scheduling runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openTraceRepo(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		records, err := repo.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored traces.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-12s %s\n", "RUN ID", "POLICY", "SAVED AT")
		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-12s %s\n",
				rec.RunID, rec.Policy, rec.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var traceShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one stored trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openTraceRepo(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		export, err := repo.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		metrics.Counter(observability.MetricTracesLoaded, 1)

		if traceJSON {
			data, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "=== Scheduling Run %s ===\n", export.RunID)
		fmt.Fprintf(cmd.OutOrStdout(), "Policy: %s\n", export.Policy)
		fmt.Fprintf(cmd.OutOrStdout(), "Days: %d  Decisions: %d  Tasks: %d\n",
			len(export.Days), len(export.Decisions), len(export.Tasks))
		s := export.Summary
		fmt.Fprintf(cmd.OutOrStdout(), "Scheduled: %d  Deferred: %d  On time: %d  Lateness: %d min\n",
			s.TasksScheduled, s.TasksDeferred, s.OnTimeCount, s.TotalLatenessMinutes)
		return nil
	},
}

func openTraceRepo(cmd *cobra.Command) (*persistence.SQLiteTraceRepository, error) {
	app, err := appconfig.Load()
	if err != nil {
		return nil, err
	}
	return persistence.NewSQLiteTraceRepository(cmd.Context(), app.TraceDBPath)
}

func init() {
	traceShowCmd.Flags().BoolVar(&traceJSON, "json", false, "output the full trace as JSON")
	traceCmd.AddCommand(traceListCmd)
	traceCmd.AddCommand(traceShowCmd)
	rootCmd.AddCommand(traceCmd)
}
