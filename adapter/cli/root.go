// Package cli wires the scheduling engine, evaluator, and trace store into
// the cadence command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
	appconfig "github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger

	metrics observability.Metrics = observability.NoopMetrics{}
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence - deterministic risk-aware task scheduler",
	Long: `Cadence allocates tasks across a planning horizon with a pluggable
ordering policy and records every decision into a replayable trace.

The same inputs always produce the same plan, so two runs can be
compared decision by decision.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Info("command start",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Info("command end",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ExecuteContext runs the command tree with the given base context.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "planning config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "record per-task observations in the trace")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// SetMetrics sets the metrics collector the commands record into. The
// default is a no-op collector.
func SetMetrics(m observability.Metrics) {
	metrics = m
}

// plannerConfig resolves the planner configuration for one command:
// defaults, overlaid by the --config file (or CADENCE_PLANNING_CONFIG),
// with --verbose switching on observation recording.
func plannerConfig() (domain.PlannerConfig, error) {
	path := cfgFile
	if path == "" {
		if app, err := appconfig.Load(); err == nil {
			path = app.PlanningConfigPath
		}
	}
	cfg, err := appconfig.LoadPlanning(path)
	if err != nil {
		return domain.PlannerConfig{}, err
	}
	if verbose {
		cfg.VerboseTrace = true
	}
	return cfg, nil
}
