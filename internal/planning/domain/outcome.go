package domain

import "errors"

var ErrNonPositiveOverrun = errors.New("overrun factor must be positive")

// TaskOutcome records historical completion data for a task. A factor of
// 1.0 means the task finished on estimate; above 1.0 means it overran.
// A task without an outcome on record falls back to the planner's neutral
// overrun default rather than an implicit zero.
type TaskOutcome struct {
	taskID        TaskID
	overrunFactor float64
	note          string
}

// NewTaskOutcome creates a validated outcome record.
func NewTaskOutcome(taskID TaskID, overrunFactor float64, note string) (TaskOutcome, error) {
	if taskID == "" {
		return TaskOutcome{}, ErrEmptyTaskID
	}
	if overrunFactor <= 0 {
		return TaskOutcome{}, ErrNonPositiveOverrun
	}
	return TaskOutcome{taskID: taskID, overrunFactor: overrunFactor, note: note}, nil
}

func (o TaskOutcome) TaskID() TaskID         { return o.taskID }
func (o TaskOutcome) OverrunFactor() float64 { return o.overrunFactor }
func (o TaskOutcome) Note() string           { return o.note }
