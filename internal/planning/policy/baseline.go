package policy

import "github.com/felixgeelhaar/cadence/internal/planning/domain"

// Baseline orders by deadline first: (due date asc, priority asc,
// created-at asc, id asc). It ignores historical outcomes entirely.
type Baseline struct{}

// NewBaseline creates the deadline-first policy.
func NewBaseline() *Baseline { return &Baseline{} }

func (p *Baseline) Name() string { return NameBaseline }

func (p *Baseline) Rank(t *domain.Task, _ domain.TaskFeatures) (domain.OrderingKey, *domain.RiskScoreBreakdown) {
	return domain.OrderingKey{
		DueDate:   t.DueDate(),
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		TaskID:    t.ID(),
	}, nil
}

var _ OrderingPolicy = (*Baseline)(nil)
