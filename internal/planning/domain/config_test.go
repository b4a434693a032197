package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

func TestDefaultPlannerConfig(t *testing.T) {
	cfg := domain.DefaultPlannerConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 14, cfg.HorizonDays)
	assert.Equal(t, 480, cfg.DailyCapacityMinutes)
	assert.Len(t, cfg.WorkingDays, 5)
	assert.InDelta(t, 0.90, cfg.CrunchThreshold, 1e-9)
	assert.InDelta(t, 1.0, cfg.NeutralOverrunFactor, 1e-9)
}

func TestDefaultRiskWeights_SumToOne(t *testing.T) {
	w := domain.DefaultRiskWeights()
	sum := w.DueProximity + w.Effort + w.Overrun + w.Slack + w.DependencyBlock
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestPlannerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.PlannerConfig)
		wantErr error
	}{
		{"zero horizon", func(c *domain.PlannerConfig) { c.HorizonDays = 0 }, domain.ErrInvalidHorizon},
		{"negative horizon", func(c *domain.PlannerConfig) { c.HorizonDays = -1 }, domain.ErrInvalidHorizon},
		{"zero capacity", func(c *domain.PlannerConfig) { c.DailyCapacityMinutes = 0 }, domain.ErrInvalidCapacity},
		{"no working days", func(c *domain.PlannerConfig) { c.WorkingDays = nil }, domain.ErrEmptyWorkingDays},
		{"zero crunch threshold", func(c *domain.PlannerConfig) { c.CrunchThreshold = 0 }, domain.ErrInvalidCrunchThreshold},
		{"crunch threshold above one", func(c *domain.PlannerConfig) { c.CrunchThreshold = 1.01 }, domain.ErrInvalidCrunchThreshold},
		{"negative weight", func(c *domain.PlannerConfig) { c.Weights.Overrun = -0.1 }, domain.ErrInvalidRiskWeight},
		{"zero neutral overrun", func(c *domain.PlannerConfig) { c.NeutralOverrunFactor = 0 }, domain.ErrInvalidNeutralOverrun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultPlannerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlannerConfig_IsWorkingDay(t *testing.T) {
	cfg := domain.DefaultPlannerConfig()

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	assert.True(t, cfg.IsWorkingDay(monday))
	assert.False(t, cfg.IsWorkingDay(saturday))
}

func TestPlannerConfig_Normalized(t *testing.T) {
	cfg := domain.DefaultPlannerConfig()
	cfg.WorkingDays = []time.Weekday{time.Friday, time.Monday, time.Friday, time.Wednesday}

	got := cfg.Normalized().WorkingDays
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, got)
}
