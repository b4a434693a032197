// Package evaluation provides the offline collaborators around the
// scheduling engine: the seeded task generator, the policy evaluator, and
// the counterfactual analyzer. None of them contain scheduling logic.
package evaluation

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

// GeneratorConfig controls the shape of a synthetic task stream.
type GeneratorConfig struct {
	TaskCount        int     `json:"task_count" yaml:"task_count"`
	DueDateRangeDays int     `json:"due_date_range_days" yaml:"due_date_range_days"`
	OverrunMean      float64 `json:"overrun_mean" yaml:"overrun_mean"`
	OverrunStd       float64 `json:"overrun_std" yaml:"overrun_std"`
}

// DefaultGeneratorConfig mirrors the stock evaluation stream.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		TaskCount:        50,
		DueDateRangeDays: 30,
		OverrunMean:      1.2,
		OverrunStd:       0.3,
	}
}

// Task size mix: roughly 30% small, 50% medium, 20% large.
const (
	smallTaskShare  = 0.30
	mediumTaskShare = 0.80
	dependencyRate  = 0.20
	outcomeRate     = 0.80
)

// TaskGenerator produces deterministic task sets and historical outcomes
// for evaluation. The same seed always yields the same stream.
type TaskGenerator struct {
	seed int64
	cfg  GeneratorConfig
}

// NewTaskGenerator creates a generator for the given seed.
func NewTaskGenerator(seed int64, cfg GeneratorConfig) *TaskGenerator {
	if cfg.TaskCount <= 0 {
		cfg = DefaultGeneratorConfig()
	}
	return &TaskGenerator{seed: seed, cfg: cfg}
}

// Generate builds a validated task set plus outcomes for roughly 80% of
// the tasks; the rest exercise the neutral missing-outcome default.
func (g *TaskGenerator) Generate(start time.Time) (*domain.TaskSet, map[domain.TaskID]domain.TaskOutcome, error) {
	rng := rand.New(rand.NewSource(g.seed))
	start = domain.DateOf(start)

	tasks := make([]*domain.Task, 0, g.cfg.TaskCount)
	outcomes := make(map[domain.TaskID]domain.TaskOutcome, g.cfg.TaskCount)

	for i := 0; i < g.cfg.TaskCount; i++ {
		id := domain.TaskID(fmt.Sprintf("task-%03d", i))

		var estimate int
		switch r := rng.Float64(); {
		case r < smallTaskShare:
			estimate = 30 + rng.Intn(91) // 30-120 min
		case r < mediumTaskShare:
			estimate = 120 + rng.Intn(361) // 120-480 min
		default:
			estimate = 480 + rng.Intn(961) // 480-1440 min
		}

		due := start.AddDate(0, 0, 1+rng.Intn(g.cfg.DueDateRangeDays))
		priority := 1 + rng.Intn(5)
		created := start.AddDate(0, 0, -rng.Intn(8))

		var deps []domain.TaskID
		if i > 0 && rng.Float64() < dependencyRate {
			deps = append(deps, domain.TaskID(fmt.Sprintf("task-%03d", rng.Intn(i))))
		}

		t, err := domain.NewTask(id, fmt.Sprintf("Task %d", i), estimate, due, priority, created, deps...)
		if err != nil {
			return nil, nil, fmt.Errorf("generate task %s: %w", id, err)
		}
		tasks = append(tasks, t)

		if rng.Float64() < outcomeRate {
			factor := rng.NormFloat64()*g.cfg.OverrunStd + g.cfg.OverrunMean
			if factor < 1.0 {
				factor = 1.0
			}
			o, err := domain.NewTaskOutcome(id, factor, fmt.Sprintf("generated outcome, overrun %.2f", factor))
			if err != nil {
				return nil, nil, fmt.Errorf("generate outcome %s: %w", id, err)
			}
			outcomes[id] = o
		}
	}

	set, err := domain.NewTaskSet(tasks)
	if err != nil {
		return nil, nil, err
	}
	return set, outcomes, nil
}
