package evaluation

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

var ErrTraceMismatch = errors.New("traces cover different task sets")

// CaseType classifies a per-task outcome difference between two policies.
type CaseType string

const (
	// CasePreventedMiss: on time under risk-aware, missed under baseline.
	CasePreventedMiss CaseType = "prevented-miss"
	// CaseRegression: on time under baseline, missed under risk-aware.
	CaseRegression CaseType = "regression"
	// CaseBothMissed: missed under both policies.
	CaseBothMissed CaseType = "both-missed"
)

// Case is one task whose outcome differs (or fails) across the two runs.
type Case struct {
	TaskID            domain.TaskID `json:"task_id"`
	Type              CaseType      `json:"type"`
	Description       string        `json:"description"`
	BaselineOnTime    bool          `json:"baseline_on_time"`
	RiskAwareOnTime   bool          `json:"risk_aware_on_time"`
	BaselineLateness  int           `json:"baseline_lateness_minutes"`
	RiskAwareLateness int           `json:"risk_aware_lateness_minutes"`
}

// CounterfactualReport aggregates the case-by-case diff of two traces.
type CounterfactualReport struct {
	BaselineRunID   string `json:"baseline_run_id"`
	RiskAwareRunID  string `json:"risk_aware_run_id"`
	TasksCompared   int    `json:"tasks_compared"`
	PreventedMisses int    `json:"prevented_misses"`
	Regressions     int    `json:"regressions"`
	BothMissed      int    `json:"both_missed"`
	Cases           []Case `json:"cases"`
}

// Counterfactuals diffs two sealed traces over the identical input set,
// task by task. Tasks on time under both policies produce no case.
func Counterfactuals(baseline, riskAware *domain.DecisionTrace) (*CounterfactualReport, error) {
	base, err := baseline.Structured()
	if err != nil {
		return nil, fmt.Errorf("baseline trace: %w", err)
	}
	risk, err := riskAware.Structured()
	if err != nil {
		return nil, fmt.Errorf("risk-aware trace: %w", err)
	}
	if len(base.Tasks) != len(risk.Tasks) {
		return nil, ErrTraceMismatch
	}

	report := &CounterfactualReport{
		BaselineRunID:  base.RunID,
		RiskAwareRunID: risk.RunID,
		TasksCompared:  len(base.Tasks),
	}

	// Both exports are sorted by task id at seal time, so a positional
	// walk lines the snapshots up.
	for i := range base.Tasks {
		b := base.Tasks[i]
		r := risk.Tasks[i]
		if b.TaskID != r.TaskID {
			return nil, ErrTraceMismatch
		}
		if b.OnTime && r.OnTime {
			continue
		}

		c := Case{
			TaskID:            b.TaskID,
			BaselineOnTime:    b.OnTime,
			RiskAwareOnTime:   r.OnTime,
			BaselineLateness:  b.LatenessMinutes,
			RiskAwareLateness: r.LatenessMinutes,
		}
		switch {
		case r.OnTime:
			c.Type = CasePreventedMiss
			c.Description = fmt.Sprintf("risk-aware ordering kept %s on time where baseline missed by %d min", b.TaskID, b.LatenessMinutes)
			report.PreventedMisses++
		case b.OnTime:
			c.Type = CaseRegression
			c.Description = fmt.Sprintf("risk-aware ordering missed %s by %d min where baseline was on time", b.TaskID, r.LatenessMinutes)
			report.Regressions++
		default:
			c.Type = CaseBothMissed
			c.Description = fmt.Sprintf("%s missed its deadline under both policies", b.TaskID)
			report.BothMissed++
		}
		report.Cases = append(report.Cases, c)
	}

	return report, nil
}
