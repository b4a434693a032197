// Package engine implements the day-by-day capacity allocator. It walks the
// planning horizon, computes the ready set, asks the active policy to order
// it, greedily fills capacity, splits overflow across days, and records
// every decision into the run's trace.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
	"github.com/felixgeelhaar/cadence/internal/planning/policy"
)

var ErrNilPolicy = errors.New("scheduler requires an ordering policy")

// Plan is the finished output of one scheduling run: the day schedules
// covering the horizon and the sealed decision trace.
type Plan struct {
	Days  []*domain.DaySchedule
	Trace *domain.DecisionTrace
}

// Scheduler allocates tasks across the configured horizon. A Scheduler is
// stateless between runs; all mutable run state (remaining work, day
// cursor, trace) is local to one Schedule call, so independent runs may
// execute in parallel as long as each gets its own Schedule call.
type Scheduler struct {
	cfg    domain.PlannerConfig
	policy policy.OrderingPolicy
	logger *slog.Logger
}

// New validates the configuration and builds a scheduler. Configuration
// errors are fatal here, before any decision is recorded.
func New(cfg domain.PlannerConfig, p policy.OrderingPolicy, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}
	if p == nil {
		return nil, ErrNilPolicy
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cfg: cfg.Normalized(), policy: p, logger: logger}, nil
}

// Schedule runs the allocator once over the task set starting at the given
// date. Inputs are never mutated. The output is deterministic: identical
// inputs produce a bit-identical plan and trace regardless of how the
// caller assembled the task set.
func (s *Scheduler) Schedule(
	set *domain.TaskSet,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	start time.Time,
) (*Plan, error) {
	start = domain.DateOf(start)
	runID := fingerprint(s.policy.Name(), s.cfg, set, outcomes, start)
	trace := domain.NewDecisionTrace(runID, s.policy.Name(), s.cfg)

	tasks := set.Tasks()
	remaining := make(map[domain.TaskID]int, len(tasks))
	for _, t := range tasks {
		remaining[t.ID()] = t.EstimatedMinutes()
	}
	// completedOn maps a task to the calendar offset of its final slice.
	// Dependents become ready on a strictly later day.
	completedOn := make(map[domain.TaskID]int, len(tasks))

	days := make([]*domain.DaySchedule, 0, s.cfg.HorizonDays)
	for offset := 0; offset < s.cfg.HorizonDays; offset++ {
		day := start.AddDate(0, 0, offset)
		if !s.cfg.IsWorkingDay(day) {
			continue
		}
		ds := domain.NewDaySchedule(day, s.cfg.DailyCapacityMinutes)
		days = append(days, ds)
		if err := s.scheduleDay(ds, offset, tasks, remaining, completedOn, outcomes, trace); err != nil {
			return nil, err
		}
	}

	if err := s.finalize(tasks, remaining, outcomes, start, trace); err != nil {
		return nil, err
	}
	if err := trace.Seal(days); err != nil {
		return nil, err
	}

	summary, err := trace.Summary()
	if err != nil {
		return nil, err
	}
	s.logger.Info("scheduling run completed",
		"run_id", runID,
		"policy", s.policy.Name(),
		"tasks_scheduled", summary.TasksScheduled,
		"tasks_deferred", summary.TasksDeferred,
	)

	return &Plan{Days: days, Trace: trace}, nil
}

// scheduleDay fills one working day: ready-set computation, policy
// ordering, greedy allocation, and deferral records.
func (s *Scheduler) scheduleDay(
	ds *domain.DaySchedule,
	offset int,
	tasks []*domain.Task,
	remaining map[domain.TaskID]int,
	completedOn map[domain.TaskID]int,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	trace *domain.DecisionTrace,
) error {
	day := ds.Day()

	ready := make([]*domain.Task, 0, len(tasks))
	notReady := make([]*domain.Task, 0)
	features := make(map[domain.TaskID]domain.TaskFeatures, len(tasks))
	for _, t := range tasks {
		if remaining[t.ID()] == 0 {
			continue
		}
		isReady := dependenciesCleared(t, completedOn, offset)
		features[t.ID()] = s.features(t, day, remaining[t.ID()], outcomes, isReady)
		if isReady {
			ready = append(ready, t)
		} else {
			notReady = append(notReady, t)
		}
	}

	ranked := policy.Order(s.policy, ready, features)
	// Partially scheduled tasks continue before newly ready tasks, so an
	// oversized task stays on consecutive working days regardless of policy.
	ranked = continuationsFirst(ranked, remaining)

	if s.cfg.VerboseTrace {
		for _, r := range ranked {
			if err := trace.Observe(r.Features); err != nil {
				return err
			}
		}
	}

	for _, r := range ranked {
		id := r.Task.ID()
		avail := ds.RemainingCapacity()
		if avail == 0 {
			err := trace.Record(domain.DecisionRecord{
				Day:    day,
				TaskID: id,
				Action: domain.ActionDeferredNoCapacity,
				Key:    r.Key,
				Reason: "day capacity exhausted before this task was reached",
			})
			if err != nil {
				return err
			}
			continue
		}

		alloc := min(remaining[id], avail)
		if _, err := ds.Allocate(id, alloc); err != nil {
			return err
		}
		remaining[id] -= alloc

		rec := domain.DecisionRecord{Day: day, TaskID: id, Minutes: alloc, Key: r.Key}
		if remaining[id] == 0 {
			completedOn[id] = offset
			rec.Action = domain.ActionScheduledFull
			rec.Reason = "remaining work fully allocated"
		} else {
			rec.Action = domain.ActionScheduledPartial
			rec.Reason = fmt.Sprintf("split: %d min left after day capacity", remaining[id])
		}
		if err := trace.Record(rec); err != nil {
			return err
		}

		s.logger.Debug("allocated slice",
			"day", day.Format("2006-01-02"),
			"task_id", string(id),
			"minutes", alloc,
			"remaining", remaining[id],
		)
	}

	if s.cfg.VerboseTrace {
		for _, t := range notReady {
			if remaining[t.ID()] != t.EstimatedMinutes() {
				continue
			}
			key, breakdown := s.policy.Rank(t, features[t.ID()])
			f := features[t.ID()]
			f.Risk = breakdown
			if err := trace.Observe(f); err != nil {
				return err
			}
			err := trace.Record(domain.DecisionRecord{
				Day:    day,
				TaskID: t.ID(),
				Action: domain.ActionDeferredNotReady,
				Key:    key,
				Reason: "dependencies not fully scheduled on an earlier day",
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// finalize assigns terminal states and records the per-task final feature
// snapshots, evaluated at the day after the horizon ends.
func (s *Scheduler) finalize(
	tasks []*domain.Task,
	remaining map[domain.TaskID]int,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	start time.Time,
	trace *domain.DecisionTrace,
) error {
	endDay := start.AddDate(0, 0, s.cfg.HorizonDays)
	for _, t := range tasks {
		rem := remaining[t.ID()]
		depsReady := true
		blocked := false
		for _, dep := range t.DependencyIDs() {
			if remaining[dep] > 0 {
				depsReady = false
				blocked = true
			}
		}

		f := s.features(t, endDay, rem, outcomes, depsReady)
		if _, breakdown := s.policy.Rank(t, f); breakdown != nil {
			f.Risk = breakdown
		}

		snap := domain.FinalTaskSnapshot{
			TaskID:           t.ID(),
			DueDate:          t.DueDate(),
			RemainingMinutes: rem,
			Features:         f,
		}
		switch {
		case rem == 0:
			snap.State = domain.TaskStateScheduled
		case blocked:
			snap.State = domain.TaskStateDeferred
			snap.DeferralReason = domain.DeferralUnresolvedDependency
		default:
			snap.State = domain.TaskStateDeferred
			snap.DeferralReason = domain.DeferralInsufficientCapacity
		}
		if err := trace.SetFinal(snap); err != nil {
			return err
		}
	}
	return nil
}

// features computes the fresh per-evaluation snapshot for one task.
func (s *Scheduler) features(
	t *domain.Task,
	day time.Time,
	remainingMinutes int,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	depsReady bool,
) domain.TaskFeatures {
	dueIn := t.DueDate().Sub(day).Hours() / 24.0

	overrun := s.cfg.NeutralOverrunFactor
	hasOutcome := false
	if o, ok := outcomes[t.ID()]; ok {
		overrun = o.OverrunFactor()
		hasOutcome = true
	}

	remainingWorkDays := float64(remainingMinutes) / float64(s.cfg.DailyCapacityMinutes)

	return domain.TaskFeatures{
		TaskID:           t.ID(),
		Day:              day,
		DueInDays:        dueIn,
		EffortMinutes:    t.EstimatedMinutes(),
		RemainingMinutes: remainingMinutes,
		OverrunFactor:    overrun,
		HasOutcome:       hasOutcome,
		SlackDays:        dueIn - remainingWorkDays,
		DependencyReady:  depsReady,
	}
}

// dependenciesCleared reports whether every dependency finished on a day
// strictly before the given offset.
func dependenciesCleared(t *domain.Task, completedOn map[domain.TaskID]int, offset int) bool {
	for _, dep := range t.DependencyIDs() {
		done, ok := completedOn[dep]
		if !ok || done >= offset {
			return false
		}
	}
	return true
}

// continuationsFirst stably partitions the ranked list so tasks with an
// existing slice come before untouched ones.
func continuationsFirst(ranked []policy.Ranked, remaining map[domain.TaskID]int) []policy.Ranked {
	out := make([]policy.Ranked, 0, len(ranked))
	for _, r := range ranked {
		if remaining[r.Task.ID()] < r.Task.EstimatedMinutes() {
			out = append(out, r)
		}
	}
	for _, r := range ranked {
		if remaining[r.Task.ID()] == r.Task.EstimatedMinutes() {
			out = append(out, r)
		}
	}
	return out
}
