package policy

import "github.com/felixgeelhaar/cadence/internal/planning/domain"

// RiskAware orders by a weighted composite risk score: (risk desc, due date
// asc, priority asc, created-at asc, id asc). The score is recomputed
// fresh for every evaluation from the supplied features.
type RiskAware struct {
	weights domain.RiskWeights
}

// NewRiskAware creates the risk-weighted policy with the given weights.
func NewRiskAware(weights domain.RiskWeights) *RiskAware {
	return &RiskAware{weights: weights}
}

func (p *RiskAware) Name() string { return NameRiskAware }

func (p *RiskAware) Rank(t *domain.Task, f domain.TaskFeatures) (domain.OrderingKey, *domain.RiskScoreBreakdown) {
	breakdown := ScoreRisk(t, f, p.weights)
	return domain.OrderingKey{
		RiskScore: breakdown.Total,
		DueDate:   t.DueDate(),
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		TaskID:    t.ID(),
	}, &breakdown
}

var _ OrderingPolicy = (*RiskAware)(nil)
