package domain

import "time"

// TaskFeatures is the fresh per-evaluation snapshot of the signals a policy
// may rank on. Features are recomputed every time a task is considered;
// they are never cached across days.
type TaskFeatures struct {
	TaskID           TaskID    `json:"task_id"`
	Day              time.Time `json:"day"`
	DueInDays        float64   `json:"due_in_days"`
	EffortMinutes    int       `json:"effort_minutes"`
	RemainingMinutes int       `json:"remaining_minutes"`
	OverrunFactor    float64   `json:"overrun_factor"`
	HasOutcome       bool      `json:"has_outcome"`
	SlackDays        float64   `json:"slack_days"`
	DependencyReady  bool      `json:"dependency_ready"`

	// Risk is populated only when a risk-scoring policy evaluated the task.
	Risk *RiskScoreBreakdown `json:"risk,omitempty"`
}

// RiskScoreBreakdown is the five-component decomposition of a risk score.
// Each component is clamped to [0, 1] before weighting.
type RiskScoreBreakdown struct {
	DueProximity    float64     `json:"due_proximity"`
	Effort          float64     `json:"effort"`
	Overrun         float64     `json:"overrun"`
	Slack           float64     `json:"slack"`
	DependencyBlock float64     `json:"dependency_block"`
	Weights         RiskWeights `json:"weights"`
	Total           float64     `json:"total"`
}

// OrderingKey is the composite sort key a policy assigns to a task. The
// trailing (priority, created-at, id) tuple is the mandatory deterministic
// tie-break shared by every policy.
type OrderingKey struct {
	RiskScore float64   `json:"risk_score"`
	DueDate   time.Time `json:"due_date"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	TaskID    TaskID    `json:"task_id"`
}

// Less defines the total order: risk score descending, due date ascending,
// priority ascending (1 is highest), created-at ascending, id ascending.
func (k OrderingKey) Less(other OrderingKey) bool {
	if k.RiskScore != other.RiskScore {
		return k.RiskScore > other.RiskScore
	}
	if !k.DueDate.Equal(other.DueDate) {
		return k.DueDate.Before(other.DueDate)
	}
	if k.Priority != other.Priority {
		return k.Priority < other.Priority
	}
	if !k.CreatedAt.Equal(other.CreatedAt) {
		return k.CreatedAt.Before(other.CreatedAt)
	}
	return k.TaskID < other.TaskID
}
