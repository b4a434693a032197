// Package config loads application settings from the environment and the
// optional YAML planning file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

var (
	ErrUnknownWeekday    = errors.New("unknown weekday name")
	ErrIncompleteWeights = errors.New("planning file must set all five risk weights or none")
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Trace store
	TraceDBPath string

	// Planning
	PlanningConfigPath string

	// Evaluation
	EvalSeed      int64
	EvalTaskCount int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("CADENCE_LOG_LEVEL", "info"),
		LogFormat:          getEnv("CADENCE_LOG_FORMAT", ""),
		TraceDBPath:        getEnv("CADENCE_TRACE_DB", defaultTraceDBPath()),
		PlanningConfigPath: getEnv("CADENCE_PLANNING_CONFIG", ""),
		EvalSeed:           getInt64Env("CADENCE_EVAL_SEED", 42),
		EvalTaskCount:      getIntEnv("CADENCE_EVAL_TASK_COUNT", 50),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// planningFile is the YAML shape of the planning config. Pointer fields
// distinguish "absent" from "zero" so the file only overrides what it sets.
type planningFile struct {
	HorizonDays          *int     `yaml:"horizon_days"`
	DailyCapacityMinutes *int     `yaml:"daily_capacity_minutes"`
	WorkingDays          []string `yaml:"working_days"`
	CrunchThreshold      *float64 `yaml:"crunch_threshold"`
	NeutralOverrunFactor *float64 `yaml:"neutral_overrun_factor"`
	VerboseTrace         *bool    `yaml:"verbose_trace"`
	Weights              *struct {
		DueProximity    *float64 `yaml:"due_proximity"`
		Effort          *float64 `yaml:"effort"`
		Overrun         *float64 `yaml:"overrun"`
		Slack           *float64 `yaml:"slack"`
		DependencyBlock *float64 `yaml:"dependency_block"`
	} `yaml:"risk_weights"`
}

// LoadPlanning reads the planner configuration, starting from defaults and
// overlaying the YAML file at path when path is non-empty. The result is
// validated before it is returned.
func LoadPlanning(path string) (domain.PlannerConfig, error) {
	cfg := domain.DefaultPlannerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PlannerConfig{}, fmt.Errorf("failed to read planning config %s: %w", path, err)
	}

	var file planningFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.PlannerConfig{}, fmt.Errorf("failed to parse planning config %s: %w", path, err)
	}

	if file.HorizonDays != nil {
		cfg.HorizonDays = *file.HorizonDays
	}
	if file.DailyCapacityMinutes != nil {
		cfg.DailyCapacityMinutes = *file.DailyCapacityMinutes
	}
	if len(file.WorkingDays) > 0 {
		days, err := parseWeekdays(file.WorkingDays)
		if err != nil {
			return domain.PlannerConfig{}, err
		}
		cfg.WorkingDays = days
	}
	if file.CrunchThreshold != nil {
		cfg.CrunchThreshold = *file.CrunchThreshold
	}
	if file.NeutralOverrunFactor != nil {
		cfg.NeutralOverrunFactor = *file.NeutralOverrunFactor
	}
	if file.VerboseTrace != nil {
		cfg.VerboseTrace = *file.VerboseTrace
	}
	if file.Weights != nil {
		w := file.Weights
		if w.DueProximity == nil || w.Effort == nil || w.Overrun == nil ||
			w.Slack == nil || w.DependencyBlock == nil {
			return domain.PlannerConfig{}, ErrIncompleteWeights
		}
		cfg.Weights = domain.RiskWeights{
			DueProximity:    *w.DueProximity,
			Effort:          *w.Effort,
			Overrun:         *w.Overrun,
			Slack:           *w.Slack,
			DependencyBlock: *w.DependencyBlock,
		}
	}

	if err := cfg.Validate(); err != nil {
		return domain.PlannerConfig{}, fmt.Errorf("invalid planning config %s: %w", path, err)
	}
	return cfg, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
		}
		days = append(days, d)
	}
	return days, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func defaultTraceDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cadence/traces.db"
	}
	return home + "/.cadence/traces.db"
}
