package engine_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
	"github.com/felixgeelhaar/cadence/internal/planning/engine"
	"github.com/felixgeelhaar/cadence/internal/planning/policy"
)

// drawTaskSet generates a valid task set where dependencies only point at
// lower-indexed tasks, so the set always passes reference validation.
func drawTaskSet(t *rapid.T) ([]*domain.Task, map[domain.TaskID]domain.TaskOutcome) {
	count := rapid.IntRange(1, 25).Draw(t, "count")
	tasks := make([]*domain.Task, 0, count)
	outcomes := make(map[domain.TaskID]domain.TaskOutcome, count)

	for i := 0; i < count; i++ {
		id := domain.TaskID(fmt.Sprintf("task-%03d", i))
		estimate := rapid.IntRange(15, 1500).Draw(t, "estimate")
		dueOffset := rapid.IntRange(1, 30).Draw(t, "dueOffset")
		priority := rapid.IntRange(1, 5).Draw(t, "priority")
		createdOffset := rapid.IntRange(0, 10).Draw(t, "createdOffset")

		var deps []domain.TaskID
		if i > 0 && rapid.Bool().Draw(t, "hasDep") {
			dep := rapid.IntRange(0, i-1).Draw(t, "dep")
			deps = append(deps, domain.TaskID(fmt.Sprintf("task-%03d", dep)))
		}

		tsk, err := domain.NewTask(id, "Task "+string(id), estimate,
			monday.AddDate(0, 0, dueOffset), priority,
			monday.AddDate(0, 0, -createdOffset), deps...)
		if err != nil {
			t.Fatalf("generated invalid task: %v", err)
		}
		tasks = append(tasks, tsk)

		if rapid.Bool().Draw(t, "hasOutcome") {
			factor := rapid.Float64Range(1.0, 3.0).Draw(t, "factor")
			o, err := domain.NewTaskOutcome(id, factor, "")
			if err != nil {
				t.Fatalf("generated invalid outcome: %v", err)
			}
			outcomes[id] = o
		}
	}
	return tasks, outcomes
}

func TestSchedule_PropertyInvariants(t *testing.T) {
	cfg := domain.DefaultPlannerConfig()
	p := policy.NewRiskAware(domain.DefaultRiskWeights())

	rapid.Check(t, func(rt *rapid.T) {
		tasks, outcomes := drawTaskSet(rt)
		set, err := domain.NewTaskSet(tasks)
		if err != nil {
			rt.Fatalf("task set rejected: %v", err)
		}

		s, err := engine.New(cfg, p, testLogger())
		if err != nil {
			rt.Fatalf("engine: %v", err)
		}
		plan, err := s.Schedule(set, outcomes, monday)
		if err != nil {
			rt.Fatalf("schedule: %v", err)
		}

		// Capacity invariant: no day over its configured minutes.
		allocated := make(map[domain.TaskID]int)
		for _, ds := range plan.Days {
			if ds.AllocatedMinutes() > cfg.DailyCapacityMinutes {
				rt.Fatalf("day %s over capacity: %d", ds.Day(), ds.AllocatedMinutes())
			}
			for _, slice := range ds.Slices() {
				allocated[slice.TaskID] += slice.Minutes
			}
		}

		// Conservation invariant: allocated plus remaining equals estimate,
		// and a terminal state matches its remainder.
		export, err := plan.Trace.Structured()
		if err != nil {
			rt.Fatalf("structured export: %v", err)
		}
		if len(export.Tasks) != len(tasks) {
			rt.Fatalf("expected %d final snapshots, got %d", len(tasks), len(export.Tasks))
		}
		for _, snap := range export.Tasks {
			tsk, err := set.Get(snap.TaskID)
			if err != nil {
				rt.Fatalf("unknown task in export: %v", err)
			}
			if got := allocated[snap.TaskID] + snap.RemainingMinutes; got != tsk.EstimatedMinutes() {
				rt.Fatalf("task %s: allocated %d + remaining %d != estimate %d",
					snap.TaskID, allocated[snap.TaskID], snap.RemainingMinutes, tsk.EstimatedMinutes())
			}
			switch snap.State {
			case domain.TaskStateScheduled:
				if snap.RemainingMinutes != 0 {
					rt.Fatalf("task %s scheduled with %d min remaining", snap.TaskID, snap.RemainingMinutes)
				}
			case domain.TaskStateDeferred:
				if snap.RemainingMinutes == 0 {
					rt.Fatalf("task %s deferred with no work remaining", snap.TaskID)
				}
			default:
				rt.Fatalf("task %s in non-terminal state %s", snap.TaskID, snap.State)
			}
		}

		// Determinism invariant: re-running over a reversed input slice
		// produces a byte-identical structured export.
		reversed := make([]*domain.Task, len(tasks))
		for i, tsk := range tasks {
			reversed[len(tasks)-1-i] = tsk
		}
		setB, err := domain.NewTaskSet(reversed)
		if err != nil {
			rt.Fatalf("reversed task set rejected: %v", err)
		}
		planB, err := s.Schedule(setB, outcomes, monday)
		if err != nil {
			rt.Fatalf("reversed schedule: %v", err)
		}
		exportB, err := planB.Trace.Structured()
		if err != nil {
			rt.Fatalf("reversed export: %v", err)
		}
		jsonA, _ := json.Marshal(export)
		jsonB, _ := json.Marshal(exportB)
		if string(jsonA) != string(jsonB) {
			rt.Fatalf("structured export differs across input orderings")
		}
	})
}
