package policy

import "github.com/felixgeelhaar/cadence/internal/planning/domain"

// Normalization constants of the risk components. Due proximity saturates
// at 30 days out, effort at a full 8-hour day, slack risk peaks at -7 days
// and vanishes above +7 days.
const (
	dueProximityHorizonDays = 30.0
	effortSaturationMinutes = 480.0
	slackHighRiskDays       = 7.0
	slackRangeDays          = 14.0
)

// ScoreRisk computes the five-component risk breakdown for a task from its
// fresh feature snapshot. Each component is clamped to [0, 1] before
// weighting; the total is the weighted sum. Pure function: no randomness,
// no mutable state.
func ScoreRisk(t *domain.Task, f domain.TaskFeatures, w domain.RiskWeights) domain.RiskScoreBreakdown {
	b := domain.RiskScoreBreakdown{
		DueProximity: clamp01(1.0 - f.DueInDays/dueProximityHorizonDays),
		Effort:       clamp01(float64(t.EstimatedMinutes()) / effortSaturationMinutes),
		Overrun:      clamp01(f.OverrunFactor - 1.0),
		Slack:        clamp01((slackHighRiskDays - f.SlackDays) / slackRangeDays),
		Weights:      w,
	}
	if !f.DependencyReady {
		b.DependencyBlock = 1.0
	}

	b.Total = b.DueProximity*w.DueProximity +
		b.Effort*w.Effort +
		b.Overrun*w.Overrun +
		b.Slack*w.Slack +
		b.DependencyBlock*w.DependencyBlock

	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
