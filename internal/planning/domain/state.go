package domain

import "fmt"

// TaskState is the per-task scheduling lifecycle state.
type TaskState int

const (
	// TaskStatePending means no dependency has cleared yet and nothing is scheduled.
	TaskStatePending TaskState = iota
	// TaskStateReady means all dependencies finished on a strictly earlier day.
	TaskStateReady
	// TaskStatePartiallyScheduled means at least one slice exists but work remains.
	TaskStatePartiallyScheduled
	// TaskStateScheduled is terminal: the full estimate has been allocated.
	TaskStateScheduled
	// TaskStateDeferred is terminal failure: the horizon ended with work remaining.
	TaskStateDeferred
)

func (s TaskState) String() string {
	switch s {
	case TaskStatePending:
		return "pending"
	case TaskStateReady:
		return "ready"
	case TaskStatePartiallyScheduled:
		return "partially_scheduled"
	case TaskStateScheduled:
		return "scheduled"
	case TaskStateDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its string form so trace exports stay
// readable and stable.
func (s TaskState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes the string form written by MarshalJSON, so stored
// trace exports load back into the same states.
func (s *TaskState) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	for _, state := range []TaskState{
		TaskStatePending, TaskStateReady, TaskStatePartiallyScheduled,
		TaskStateScheduled, TaskStateDeferred,
	} {
		if state.String() == name {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown task state %q", name)
}

// DeferralReason distinguishes why a task ended the horizon unfinished.
type DeferralReason string

const (
	// DeferralNone applies to fully scheduled tasks.
	DeferralNone DeferralReason = ""
	// DeferralInsufficientCapacity means the task was ready but the horizon
	// ran out of capacity.
	DeferralInsufficientCapacity DeferralReason = "insufficient-capacity"
	// DeferralUnresolvedDependency means the task never became ready, e.g.
	// a dependency was itself deferred or forms a cycle.
	DeferralUnresolvedDependency DeferralReason = "unresolved-dependency"
)
