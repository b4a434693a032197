package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrTraceSealed    = errors.New("decision trace is sealed")
	ErrTraceNotSealed = errors.New("decision trace is not sealed yet")
)

// DecisionAction classifies what the engine did with a task on a day.
type DecisionAction string

const (
	ActionScheduledFull      DecisionAction = "scheduled-full"
	ActionScheduledPartial   DecisionAction = "scheduled-partial"
	ActionDeferredNotReady   DecisionAction = "deferred-not-ready"
	ActionDeferredNoCapacity DecisionAction = "deferred-no-capacity"
)

// DecisionRecord is one append-only entry in the decision log.
type DecisionRecord struct {
	Day     time.Time      `json:"day"`
	TaskID  TaskID         `json:"task_id"`
	Action  DecisionAction `json:"action"`
	Minutes int            `json:"minutes"`
	Key     OrderingKey    `json:"ordering_key"`
	Reason  string         `json:"reason"`
}

// FinalTaskSnapshot is the terminal per-task record of a run. OnTime and
// LatenessMinutes are filled in when the trace is sealed.
type FinalTaskSnapshot struct {
	TaskID           TaskID         `json:"task_id"`
	State            TaskState      `json:"state"`
	DueDate          time.Time      `json:"due_date"`
	RemainingMinutes int            `json:"remaining_minutes"`
	Features         TaskFeatures   `json:"features"`
	DeferralReason   DeferralReason `json:"deferral_reason,omitempty"`
	OnTime           bool           `json:"on_time"`
	LatenessMinutes  int            `json:"lateness_minutes"`
}

// SummaryStats aggregates a sealed run. All values derive from the recorded
// decisions, day schedules, and final snapshots; nothing is recomputed from
// engine internals.
type SummaryStats struct {
	TasksTotal            int     `json:"tasks_total"`
	TasksScheduled        int     `json:"tasks_scheduled"`
	TasksDeferred         int     `json:"tasks_deferred"`
	OnTimeCount           int     `json:"on_time_count"`
	TotalLatenessMinutes  int     `json:"total_lateness_minutes"`
	CrunchDays            int     `json:"crunch_days"`
	TaskSplits            int     `json:"task_splits"`
	AverageSlackDays      float64 `json:"average_slack_days"`
	TotalScheduledMinutes int     `json:"total_scheduled_minutes"`
}

// DayExport is the trace's view of one scheduled day.
type DayExport struct {
	Day              time.Time        `json:"day"`
	CapacityMinutes  int              `json:"capacity_minutes"`
	AllocatedMinutes int              `json:"allocated_minutes"`
	IsCrunch         bool             `json:"is_crunch"`
	Slices           []ScheduledSlice `json:"slices"`
}

// TraceExport is the structured (machine-readable) projection of a sealed
// trace. Field names and nesting are stable across runs so two traces can
// be diffed record by record.
type TraceExport struct {
	RunID        string              `json:"run_id"`
	Policy       string              `json:"policy"`
	Config       PlannerConfig       `json:"config"`
	Days         []DayExport         `json:"days"`
	Observations []TaskFeatures      `json:"observations,omitempty"`
	Decisions    []DecisionRecord    `json:"decisions"`
	Tasks        []FinalTaskSnapshot `json:"tasks"`
	Summary      SummaryStats        `json:"summary"`
}

// DecisionTrace accumulates every decision of one scheduling run. It is a
// passive observer: recording never influences scheduling outcomes. The
// trace is created at run start, appended to throughout, and sealed
// read-only when the run completes.
type DecisionTrace struct {
	runID        string
	policyName   string
	config       PlannerConfig
	observations []TaskFeatures
	records      []DecisionRecord
	finals       []FinalTaskSnapshot
	days         []DayExport
	summary      SummaryStats
	sealed       bool
}

// NewDecisionTrace starts an empty trace for one run.
func NewDecisionTrace(runID, policyName string, cfg PlannerConfig) *DecisionTrace {
	return &DecisionTrace{
		runID:      runID,
		policyName: policyName,
		config:     cfg.Normalized(),
	}
}

func (t *DecisionTrace) RunID() string      { return t.runID }
func (t *DecisionTrace) PolicyName() string { return t.policyName }
func (t *DecisionTrace) Sealed() bool       { return t.sealed }

// Record appends one decision to the log.
func (t *DecisionTrace) Record(rec DecisionRecord) error {
	if t.sealed {
		return ErrTraceSealed
	}
	t.records = append(t.records, rec)
	return nil
}

// Observe appends a per-day feature snapshot for a considered task.
func (t *DecisionTrace) Observe(f TaskFeatures) error {
	if t.sealed {
		return ErrTraceSealed
	}
	t.observations = append(t.observations, f)
	return nil
}

// SetFinal records the terminal snapshot for one task.
func (t *DecisionTrace) SetFinal(snap FinalTaskSnapshot) error {
	if t.sealed {
		return ErrTraceSealed
	}
	t.finals = append(t.finals, snap)
	return nil
}

// Records returns a copy of the decision log.
func (t *DecisionTrace) Records() []DecisionRecord {
	records := make([]DecisionRecord, len(t.records))
	copy(records, t.records)
	return records
}

// Summary returns the sealed summary statistics.
func (t *DecisionTrace) Summary() (SummaryStats, error) {
	if !t.sealed {
		return SummaryStats{}, ErrTraceNotSealed
	}
	return t.summary, nil
}

// Seal computes summary statistics from the recorded state and freezes the
// trace. Per-task on-time and lateness figures are derived from the final
// day schedules against each task's due date.
func (t *DecisionTrace) Seal(days []*DaySchedule) error {
	if t.sealed {
		return ErrTraceSealed
	}

	sort.Slice(t.finals, func(i, j int) bool { return t.finals[i].TaskID < t.finals[j].TaskID })

	t.days = make([]DayExport, 0, len(days))
	sliceCount := make(map[TaskID]int)
	lateMinutes := make(map[TaskID]int)
	for _, d := range days {
		t.days = append(t.days, DayExport{
			Day:              d.Day(),
			CapacityMinutes:  d.CapacityMinutes(),
			AllocatedMinutes: d.AllocatedMinutes(),
			IsCrunch:         d.IsCrunch(t.config.CrunchThreshold),
			Slices:           d.Slices(),
		})
		if d.IsCrunch(t.config.CrunchThreshold) {
			t.summary.CrunchDays++
		}
		t.summary.TotalScheduledMinutes += d.AllocatedMinutes()
	}
	for i := range t.finals {
		due := t.finals[i].DueDate
		id := t.finals[i].TaskID
		for _, d := range days {
			for _, s := range d.Slices() {
				if s.TaskID != id {
					continue
				}
				sliceCount[id]++
				if s.Day.After(due) {
					lateMinutes[id] += s.Minutes
				}
			}
		}
	}

	slackSum := 0.0
	for i := range t.finals {
		snap := &t.finals[i]
		lateness := lateMinutes[snap.TaskID]
		if snap.State == TaskStateDeferred {
			lateness += snap.RemainingMinutes
			t.summary.TasksDeferred++
		} else {
			t.summary.TasksScheduled++
		}
		snap.LatenessMinutes = lateness
		snap.OnTime = snap.State == TaskStateScheduled && lateMinutes[snap.TaskID] == 0
		if snap.OnTime {
			t.summary.OnTimeCount++
		}
		t.summary.TotalLatenessMinutes += lateness
		if sliceCount[snap.TaskID] > 1 {
			t.summary.TaskSplits++
		}
		slackSum += snap.Features.SlackDays
	}
	t.summary.TasksTotal = len(t.finals)
	if len(t.finals) > 0 {
		t.summary.AverageSlackDays = slackSum / float64(len(t.finals))
	}

	t.sealed = true
	return nil
}

// Structured returns the machine-readable projection of the sealed trace.
func (t *DecisionTrace) Structured() (TraceExport, error) {
	if !t.sealed {
		return TraceExport{}, ErrTraceNotSealed
	}
	export := TraceExport{
		RunID:     t.runID,
		Policy:    t.policyName,
		Config:    t.config,
		Days:      append([]DayExport(nil), t.days...),
		Decisions: append([]DecisionRecord(nil), t.records...),
		Tasks:     append([]FinalTaskSnapshot(nil), t.finals...),
		Summary:   t.summary,
	}
	if len(t.observations) > 0 {
		export.Observations = append([]TaskFeatures(nil), t.observations...)
	}
	return export, nil
}

// Human returns the formatted, human-readable projection of the sealed
// trace. It is a pure rendering of the same state Structured exposes.
func (t *DecisionTrace) Human() (string, error) {
	export, err := t.Structured()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Scheduling Run %s ===\n", export.RunID)
	fmt.Fprintf(&b, "Policy: %s\n\n", export.Policy)

	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "  horizon_days: %d\n", export.Config.HorizonDays)
	fmt.Fprintf(&b, "  daily_capacity_minutes: %d\n", export.Config.DailyCapacityMinutes)
	fmt.Fprintf(&b, "  working_days: %s\n", formatWeekdays(export.Config.WorkingDays))
	fmt.Fprintf(&b, "  crunch_threshold: %.2f\n", export.Config.CrunchThreshold)
	w := export.Config.Weights
	fmt.Fprintf(&b, "  risk_weights: due_proximity=%.2f effort=%.2f overrun=%.2f slack=%.2f dependency_block=%.2f\n",
		w.DueProximity, w.Effort, w.Overrun, w.Slack, w.DependencyBlock)

	b.WriteString("\nDays:\n")
	for _, d := range export.Days {
		crunch := ""
		if d.IsCrunch {
			crunch = " [crunch]"
		}
		fmt.Fprintf(&b, "  %s: %d/%d min%s\n",
			d.Day.Format("2006-01-02"), d.AllocatedMinutes, d.CapacityMinutes, crunch)
		for _, s := range d.Slices {
			fmt.Fprintf(&b, "    %s: %d min\n", s.TaskID, s.Minutes)
		}
	}

	b.WriteString("\nDecisions:\n")
	for _, rec := range export.Decisions {
		fmt.Fprintf(&b, "  %s %s %s (%d min)\n",
			rec.Day.Format("2006-01-02"), rec.TaskID, rec.Action, rec.Minutes)
		fmt.Fprintf(&b, "    reason: %s\n", rec.Reason)
	}

	b.WriteString("\nTasks:\n")
	for _, snap := range export.Tasks {
		fmt.Fprintf(&b, "  %s: %s", snap.TaskID, snap.State)
		if snap.DeferralReason != DeferralNone {
			fmt.Fprintf(&b, " (%s, %d min remaining)", snap.DeferralReason, snap.RemainingMinutes)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "    due: %s  on_time: %t  lateness: %d min  slack: %.1f days\n",
			snap.DueDate.Format("2006-01-02"), snap.OnTime, snap.LatenessMinutes, snap.Features.SlackDays)
		if snap.Features.Risk != nil {
			r := snap.Features.Risk
			fmt.Fprintf(&b, "    risk: %.3f (due=%.2f effort=%.2f overrun=%.2f slack=%.2f deps=%.2f)\n",
				r.Total, r.DueProximity, r.Effort, r.Overrun, r.Slack, r.DependencyBlock)
		}
	}

	s := export.Summary
	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "  tasks_total: %d\n", s.TasksTotal)
	fmt.Fprintf(&b, "  tasks_scheduled: %d\n", s.TasksScheduled)
	fmt.Fprintf(&b, "  tasks_deferred: %d\n", s.TasksDeferred)
	fmt.Fprintf(&b, "  on_time_count: %d\n", s.OnTimeCount)
	fmt.Fprintf(&b, "  total_lateness_minutes: %d\n", s.TotalLatenessMinutes)
	fmt.Fprintf(&b, "  crunch_days: %d\n", s.CrunchDays)
	fmt.Fprintf(&b, "  task_splits: %d\n", s.TaskSplits)
	fmt.Fprintf(&b, "  average_slack_days: %.2f\n", s.AverageSlackDays)
	fmt.Fprintf(&b, "  total_scheduled_minutes: %d\n", s.TotalScheduledMinutes)

	return b.String(), nil
}

func formatWeekdays(days []time.Weekday) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, strings.ToLower(d.String()))
	}
	return strings.Join(names, ",")
}
