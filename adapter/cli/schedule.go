package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cadence/internal/evaluation/persistence"
	"github.com/felixgeelhaar/cadence/internal/planning/engine"
	"github.com/felixgeelhaar/cadence/internal/planning/policy"
	appconfig "github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

var (
	scheduleTaskFile string
	schedulePolicy   string
	scheduleStart    string
	scheduleFormat   string
	scheduleSave     bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a task file across the planning horizon",
	Long: `Runs the allocator over a YAML task file and prints the resulting
decision trace.

Examples:
  cadence schedule --tasks tasks.yaml                      # risk-aware, today
  cadence schedule --tasks tasks.yaml --policy baseline
  cadence schedule --tasks tasks.yaml --start 2026-09-07
  cadence schedule --tasks tasks.yaml --format json --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := plannerConfig()
		if err != nil {
			return err
		}
		set, outcomes, err := loadTaskFile(scheduleTaskFile)
		if err != nil {
			return err
		}

		start := time.Now()
		if scheduleStart != "" {
			start, err = time.Parse("2006-01-02", scheduleStart)
			if err != nil {
				return fmt.Errorf("invalid start date, use YYYY-MM-DD: %w", err)
			}
		}

		pol, err := policy.ByName(schedulePolicy, cfg.Weights)
		if err != nil {
			return err
		}
		scheduler, err := engine.New(cfg, pol, logger)
		if err != nil {
			return err
		}

		policyTag := observability.T("policy", pol.Name())
		timer := observability.StartTimer("schedule").
			WithLogger(logger).
			WithMetrics(metrics).
			WithTags(policyTag)
		plan, err := scheduler.Schedule(set, outcomes, start)
		timer.StopWithError(err)
		if err != nil {
			return err
		}

		summary, err := plan.Trace.Summary()
		if err != nil {
			return err
		}
		metrics.Counter(observability.MetricRunsCompleted, 1, policyTag)
		metrics.Counter(observability.MetricTasksScheduled, int64(summary.TasksScheduled), policyTag)
		metrics.Counter(observability.MetricTasksDeferred, int64(summary.TasksDeferred), policyTag)
		metrics.Counter(observability.MetricTaskSplits, int64(summary.TaskSplits), policyTag)
		metrics.Counter(observability.MetricCrunchDays, int64(summary.CrunchDays), policyTag)

		switch scheduleFormat {
		case "json":
			export, err := plan.Trace.Structured()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		default:
			human, err := plan.Trace.Human()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), human)
		}

		if scheduleSave {
			app, err := appconfig.Load()
			if err != nil {
				return err
			}
			repo, err := persistence.NewSQLiteTraceRepository(cmd.Context(), app.TraceDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.Save(cmd.Context(), plan.Trace); err != nil {
				return err
			}
			metrics.Counter(observability.MetricTracesSaved, 1)
			fmt.Fprintf(cmd.OutOrStdout(), "\nSaved trace %s to %s\n", plan.Trace.RunID(), app.TraceDBPath)
		}

		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleTaskFile, "tasks", "t", "", "task file path (YAML)")
	scheduleCmd.Flags().StringVarP(&schedulePolicy, "policy", "p", policy.NameRiskAware, "ordering policy (baseline or risk-aware)")
	scheduleCmd.Flags().StringVarP(&scheduleStart, "start", "s", "", "first day of the horizon (default today)")
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "human", "output format (human or json)")
	scheduleCmd.Flags().BoolVar(&scheduleSave, "save", false, "persist the trace to the trace store")
	_ = scheduleCmd.MarkFlagRequired("tasks")
	rootCmd.AddCommand(scheduleCmd)
}
