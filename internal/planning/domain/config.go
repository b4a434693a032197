package domain

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrInvalidHorizon         = errors.New("horizon days must be positive")
	ErrInvalidCapacity        = errors.New("daily capacity minutes must be positive")
	ErrEmptyWorkingDays       = errors.New("working day set cannot be empty")
	ErrInvalidCrunchThreshold = errors.New("crunch threshold must be in (0, 1]")
	ErrInvalidRiskWeight      = errors.New("risk weights must all be present and non-negative")
	ErrInvalidNeutralOverrun  = errors.New("neutral overrun factor must be positive")
)

// RiskWeights holds the five named weights of the risk score. The engine
// does not require them to sum to 1.0, but score interpretability assumes
// they do.
type RiskWeights struct {
	DueProximity    float64 `json:"due_proximity" yaml:"due_proximity"`
	Effort          float64 `json:"effort" yaml:"effort"`
	Overrun         float64 `json:"overrun" yaml:"overrun"`
	Slack           float64 `json:"slack" yaml:"slack"`
	DependencyBlock float64 `json:"dependency_block" yaml:"dependency_block"`
}

// DefaultRiskWeights mirrors the stock weighting of the risk-aware policy.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		DueProximity:    0.30,
		Effort:          0.20,
		Overrun:         0.30,
		Slack:           0.10,
		DependencyBlock: 0.10,
	}
}

// PlannerConfig is the configuration bundle one scheduling run operates
// under. It is snapshotted into the decision trace.
type PlannerConfig struct {
	HorizonDays          int            `json:"horizon_days"`
	DailyCapacityMinutes int            `json:"daily_capacity_minutes"`
	WorkingDays          []time.Weekday `json:"working_days"`
	CrunchThreshold      float64        `json:"crunch_threshold"`
	Weights              RiskWeights    `json:"risk_weights"`

	// NeutralOverrunFactor is applied to tasks without a recorded outcome.
	// The default of 1.0 makes the overrun component contribute zero.
	NeutralOverrunFactor float64 `json:"neutral_overrun_factor"`

	// VerboseTrace records deferred-not-ready decisions and per-day ready
	// set observations in addition to allocation decisions.
	VerboseTrace bool `json:"verbose_trace"`
}

// DefaultPlannerConfig returns the stock two-week Monday-to-Friday plan.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		HorizonDays:          14,
		DailyCapacityMinutes: 480,
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		CrunchThreshold:      0.90,
		Weights:              DefaultRiskWeights(),
		NeutralOverrunFactor: 1.0,
	}
}

// Validate surfaces configuration errors before a run starts.
func (c PlannerConfig) Validate() error {
	if c.HorizonDays <= 0 {
		return ErrInvalidHorizon
	}
	if c.DailyCapacityMinutes <= 0 {
		return ErrInvalidCapacity
	}
	if len(c.WorkingDays) == 0 {
		return ErrEmptyWorkingDays
	}
	if c.CrunchThreshold <= 0 || c.CrunchThreshold > 1 {
		return ErrInvalidCrunchThreshold
	}
	for _, w := range []float64{
		c.Weights.DueProximity,
		c.Weights.Effort,
		c.Weights.Overrun,
		c.Weights.Slack,
		c.Weights.DependencyBlock,
	} {
		if w < 0 {
			return ErrInvalidRiskWeight
		}
	}
	if c.NeutralOverrunFactor <= 0 {
		return ErrInvalidNeutralOverrun
	}
	return nil
}

// IsWorkingDay reports whether t falls on a configured working weekday.
func (c PlannerConfig) IsWorkingDay(t time.Time) bool {
	for _, d := range c.WorkingDays {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}

// Normalized returns a copy with the working day set sorted and
// de-duplicated, so two equivalent configurations fingerprint identically.
func (c PlannerConfig) Normalized() PlannerConfig {
	seen := make(map[time.Weekday]struct{}, len(c.WorkingDays))
	days := make([]time.Weekday, 0, len(c.WorkingDays))
	for _, d := range c.WorkingDays {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	c.WorkingDays = days
	return c
}
