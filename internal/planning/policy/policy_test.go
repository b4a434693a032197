package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
	"github.com/felixgeelhaar/cadence/internal/planning/policy"
)

func newTask(t *testing.T, id string, estimate int, due time.Time, priority int, created time.Time) *domain.Task {
	t.Helper()
	tsk, err := domain.NewTask(domain.TaskID(id), "Task "+id, estimate, due, priority, created)
	require.NoError(t, err)
	return tsk
}

func featuresFor(tasks []*domain.Task, day time.Time, overruns map[domain.TaskID]float64) map[domain.TaskID]domain.TaskFeatures {
	features := make(map[domain.TaskID]domain.TaskFeatures, len(tasks))
	for _, tsk := range tasks {
		overrun := 1.0
		if o, ok := overruns[tsk.ID()]; ok {
			overrun = o
		}
		dueIn := tsk.DueDate().Sub(day).Hours() / 24.0
		features[tsk.ID()] = domain.TaskFeatures{
			TaskID:          tsk.ID(),
			Day:             day,
			DueInDays:       dueIn,
			EffortMinutes:   tsk.EstimatedMinutes(),
			OverrunFactor:   overrun,
			SlackDays:       dueIn - float64(tsk.EstimatedMinutes())/480.0,
			DependencyReady: true,
		}
	}
	return features
}

func orderedIDs(ranked []policy.Ranked) []domain.TaskID {
	ids := make([]domain.TaskID, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Task.ID())
	}
	return ids
}

func TestBaseline_OrdersByDueThenPriorityThenCreatedThenID(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	early := day.AddDate(0, 0, 3)
	late := day.AddDate(0, 0, 9)
	createdA := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	createdB := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)

	tasks := []*domain.Task{
		newTask(t, "later-due", 60, late, 1, createdA),
		newTask(t, "low-priority", 60, early, 4, createdA),
		newTask(t, "high-priority", 60, early, 1, createdA),
		newTask(t, "same-but-newer", 60, early, 4, createdB),
	}

	ranked := policy.Order(policy.NewBaseline(), tasks, featuresFor(tasks, day, nil))

	assert.Equal(t, []domain.TaskID{
		"high-priority", "low-priority", "same-but-newer", "later-due",
	}, orderedIDs(ranked))
}

func TestBaseline_IgnoresOutcomes(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	due := day.AddDate(0, 0, 5)
	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	tasks := []*domain.Task{
		newTask(t, "a", 60, due, 3, created),
		newTask(t, "b", 60, due, 3, created),
	}
	overruns := map[domain.TaskID]float64{"b": 3.0}

	ranked := policy.Order(policy.NewBaseline(), tasks, featuresFor(tasks, day, overruns))

	// Identical except id; the historic overrun of b must not move it.
	assert.Equal(t, []domain.TaskID{"a", "b"}, orderedIDs(ranked))
	assert.Nil(t, ranked[0].Breakdown)
	assert.Nil(t, ranked[1].Features.Risk)
}

func TestRiskAware_ChronicOverrunOutranksNearerDue(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	// A small clean task due soon against a large chronically overrunning
	// task due later. The overrun and effort components outweigh the due
	// proximity edge.
	nearClean := newTask(t, "near-clean", 60, day.AddDate(0, 0, 3), 3, created)
	farRisky := newTask(t, "far-risky", 480, day.AddDate(0, 0, 9), 3, created)
	tasks := []*domain.Task{nearClean, farRisky}
	overruns := map[domain.TaskID]float64{"far-risky": 1.8}

	ranked := policy.Order(policy.NewRiskAware(domain.DefaultRiskWeights()), tasks, featuresFor(tasks, day, overruns))

	require.Equal(t, []domain.TaskID{"far-risky", "near-clean"}, orderedIDs(ranked))

	// The winning score is explained by its recorded breakdown.
	risky := ranked[0]
	require.NotNil(t, risky.Breakdown)
	assert.InDelta(t, 0.8, risky.Breakdown.Overrun, 1e-9)
	assert.InDelta(t, 1.0, risky.Breakdown.Effort, 1e-9)
	assert.InDelta(t, risky.Breakdown.Total, risky.Key.RiskScore, 1e-9)
	assert.Greater(t, risky.Key.RiskScore, ranked[1].Key.RiskScore)

	// Order attaches the breakdown to the exported features.
	require.NotNil(t, risky.Features.Risk)
	assert.Equal(t, risky.Breakdown, risky.Features.Risk)
}

func TestRiskAware_NearerDueWinsWhenOtherwiseEqual(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	// Same estimate, same overrun history; only the due date differs, so
	// due proximity decides and the earlier deadline scores higher.
	a := newTask(t, "sooner", 120, day.AddDate(0, 0, 4), 3, created)
	b := newTask(t, "later", 120, day.AddDate(0, 0, 8), 3, created)
	tasks := []*domain.Task{b, a}

	ranked := policy.Order(policy.NewRiskAware(domain.DefaultRiskWeights()), tasks, featuresFor(tasks, day, nil))

	assert.Equal(t, []domain.TaskID{"sooner", "later"}, orderedIDs(ranked))
}

func TestOrder_TieBreakIsTotal(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	due := day.AddDate(0, 0, 5)
	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	// Fully identical tasks except id: the id is the final tie-break, so
	// the order is still deterministic.
	tasks := []*domain.Task{
		newTask(t, "c", 60, due, 3, created),
		newTask(t, "a", 60, due, 3, created),
		newTask(t, "b", 60, due, 3, created),
	}

	for _, p := range []policy.OrderingPolicy{policy.NewBaseline(), policy.NewRiskAware(domain.DefaultRiskWeights())} {
		ranked := policy.Order(p, tasks, featuresFor(tasks, day, nil))
		assert.Equal(t, []domain.TaskID{"a", "b", "c"}, orderedIDs(ranked), "policy %s", p.Name())
	}
}

func TestByName(t *testing.T) {
	w := domain.DefaultRiskWeights()

	p, err := policy.ByName(policy.NameBaseline, w)
	require.NoError(t, err)
	assert.Equal(t, "baseline", p.Name())

	p, err = policy.ByName(policy.NameRiskAware, w)
	require.NoError(t, err)
	assert.Equal(t, "risk-aware", p.Name())

	_, err = policy.ByName("fancy", w)
	assert.ErrorIs(t, err, policy.ErrUnknownPolicy)
}
