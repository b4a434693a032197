package evaluation

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
	"github.com/felixgeelhaar/cadence/internal/planning/engine"
	"github.com/felixgeelhaar/cadence/internal/planning/policy"
)

// PolicyResult summarizes one engine run for comparison.
type PolicyResult struct {
	Policy               string  `json:"policy"`
	RunID                string  `json:"run_id"`
	TasksTotal           int     `json:"tasks_total"`
	OnTimeCount          int     `json:"on_time_count"`
	OnTimeRatePercent    float64 `json:"on_time_rate_percent"`
	TotalLatenessMinutes int     `json:"total_lateness_minutes"`
	TasksDeferred        int     `json:"tasks_deferred"`
	CrunchDays           int     `json:"crunch_days"`
	TaskSplits           int     `json:"task_splits"`
	AverageSlackDays     float64 `json:"average_slack_days"`
}

// Improvement is the risk-aware delta over baseline.
type Improvement struct {
	OnTimeRateDelta          float64 `json:"on_time_rate_delta"`
	LatenessReductionMinutes int     `json:"lateness_reduction_minutes"`
	CrunchDaysReduction      int     `json:"crunch_days_reduction"`
}

// Comparison is the full evaluation report over one input set.
type Comparison struct {
	Baseline    PolicyResult `json:"baseline"`
	RiskAware   PolicyResult `json:"risk_aware"`
	Improvement Improvement  `json:"improvement"`
}

// Evaluator runs the engine once per policy on the identical input set and
// aggregates the two sealed traces into a comparison.
type Evaluator struct {
	cfg    domain.PlannerConfig
	logger *slog.Logger
}

// NewEvaluator creates an evaluator for the given planner configuration.
func NewEvaluator(cfg domain.PlannerConfig, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{cfg: cfg, logger: logger}
}

// Compare schedules the set under both built-in policies and returns the
// comparison plus both sealed traces for counterfactual analysis. The two
// runs share the read-only inputs but own their run state independently.
func (e *Evaluator) Compare(
	set *domain.TaskSet,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	start time.Time,
) (*Comparison, *domain.DecisionTrace, *domain.DecisionTrace, error) {
	baselineTrace, baselineResult, err := e.run(policy.NewBaseline(), set, outcomes, start)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("baseline run: %w", err)
	}
	riskTrace, riskResult, err := e.run(policy.NewRiskAware(e.cfg.Weights), set, outcomes, start)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("risk-aware run: %w", err)
	}

	cmp := &Comparison{
		Baseline:  baselineResult,
		RiskAware: riskResult,
		Improvement: Improvement{
			OnTimeRateDelta:          riskResult.OnTimeRatePercent - baselineResult.OnTimeRatePercent,
			LatenessReductionMinutes: baselineResult.TotalLatenessMinutes - riskResult.TotalLatenessMinutes,
			CrunchDaysReduction:      baselineResult.CrunchDays - riskResult.CrunchDays,
		},
	}
	return cmp, baselineTrace, riskTrace, nil
}

func (e *Evaluator) run(
	p policy.OrderingPolicy,
	set *domain.TaskSet,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	start time.Time,
) (*domain.DecisionTrace, PolicyResult, error) {
	scheduler, err := engine.New(e.cfg, p, e.logger)
	if err != nil {
		return nil, PolicyResult{}, err
	}
	plan, err := scheduler.Schedule(set, outcomes, start)
	if err != nil {
		return nil, PolicyResult{}, err
	}
	summary, err := plan.Trace.Summary()
	if err != nil {
		return nil, PolicyResult{}, err
	}

	result := PolicyResult{
		Policy:               p.Name(),
		RunID:                plan.Trace.RunID(),
		TasksTotal:           summary.TasksTotal,
		OnTimeCount:          summary.OnTimeCount,
		TotalLatenessMinutes: summary.TotalLatenessMinutes,
		TasksDeferred:        summary.TasksDeferred,
		CrunchDays:           summary.CrunchDays,
		TaskSplits:           summary.TaskSplits,
		AverageSlackDays:     summary.AverageSlackDays,
	}
	if summary.TasksTotal > 0 {
		result.OnTimeRatePercent = float64(summary.OnTimeCount) / float64(summary.TasksTotal) * 100
	}
	return plan.Trace, result, nil
}

// FormatComparison renders the comparison as an aligned console table.
func FormatComparison(cmp *Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-32s %15s %15s\n", "Metric", "Baseline", "Risk-Aware")
	b.WriteString(strings.Repeat("-", 64) + "\n")
	fmt.Fprintf(&b, "%-32s %15.2f %15.2f\n", "On-time rate (%)", cmp.Baseline.OnTimeRatePercent, cmp.RiskAware.OnTimeRatePercent)
	fmt.Fprintf(&b, "%-32s %15d %15d\n", "Total lateness (min)", cmp.Baseline.TotalLatenessMinutes, cmp.RiskAware.TotalLatenessMinutes)
	fmt.Fprintf(&b, "%-32s %15d %15d\n", "Deferred tasks", cmp.Baseline.TasksDeferred, cmp.RiskAware.TasksDeferred)
	fmt.Fprintf(&b, "%-32s %15d %15d\n", "Crunch days", cmp.Baseline.CrunchDays, cmp.RiskAware.CrunchDays)
	fmt.Fprintf(&b, "%-32s %15d %15d\n", "Task splits", cmp.Baseline.TaskSplits, cmp.RiskAware.TaskSplits)
	fmt.Fprintf(&b, "%-32s %15.2f %15.2f\n", "Average slack (days)", cmp.Baseline.AverageSlackDays, cmp.RiskAware.AverageSlackDays)
	return b.String()
}
