// Package domain holds the planning data model: immutable task inputs,
// the mutable schedule outputs, and the decision trace that makes every
// placement auditable.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptyTitle          = errors.New("task title cannot be empty")
	ErrEmptyTaskID         = errors.New("task id cannot be empty")
	ErrNonPositiveEstimate = errors.New("estimated minutes must be positive")
	ErrInvalidPriority     = errors.New("priority must be between 1 and 5")
	ErrDuplicateTaskID     = errors.New("duplicate task id")
	ErrUnknownDependency   = errors.New("dependency references unknown task id")
	ErrUnknownTask         = errors.New("unknown task id")
)

// TaskID identifies a task within one scheduling run.
type TaskID string

// PriorityHighest and PriorityLowest bound the user-assigned priority level.
// Lower numbers are more important.
const (
	PriorityHighest = 1
	PriorityLowest  = 5
)

// Task is an immutable, estimated, deadline-bound unit of work.
type Task struct {
	id               TaskID
	title            string
	estimatedMinutes int
	dueDate          time.Time
	priority         int
	dependencyIDs    []TaskID
	createdAt        time.Time
}

// NewTask creates a validated task. The due date is normalized to the start
// of its day in UTC; dependency ids are de-duplicated and sorted so that a
// task's identity does not depend on input ordering.
func NewTask(
	id TaskID,
	title string,
	estimatedMinutes int,
	dueDate time.Time,
	priority int,
	createdAt time.Time,
	dependencyIDs ...TaskID,
) (*Task, error) {
	if id == "" {
		return nil, ErrEmptyTaskID
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if estimatedMinutes <= 0 {
		return nil, ErrNonPositiveEstimate
	}
	if priority < PriorityHighest || priority > PriorityLowest {
		return nil, ErrInvalidPriority
	}

	deps := make([]TaskID, 0, len(dependencyIDs))
	seen := make(map[TaskID]struct{}, len(dependencyIDs))
	for _, dep := range dependencyIDs {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })

	return &Task{
		id:               id,
		title:            title,
		estimatedMinutes: estimatedMinutes,
		dueDate:          DateOf(dueDate),
		priority:         priority,
		dependencyIDs:    deps,
		createdAt:        createdAt.UTC(),
	}, nil
}

func (t *Task) ID() TaskID            { return t.id }
func (t *Task) Title() string         { return t.title }
func (t *Task) EstimatedMinutes() int { return t.estimatedMinutes }
func (t *Task) DueDate() time.Time    { return t.dueDate }
func (t *Task) Priority() int         { return t.priority }
func (t *Task) CreatedAt() time.Time  { return t.createdAt }

// DependencyIDs returns a copy of the dependency list.
func (t *Task) DependencyIDs() []TaskID {
	deps := make([]TaskID, len(t.dependencyIDs))
	copy(deps, t.dependencyIDs)
	return deps
}

// HasDependencies reports whether the task is gated on other tasks.
func (t *Task) HasDependencies() bool { return len(t.dependencyIDs) > 0 }

// TaskSet is a validated, canonically ordered collection of tasks. Every
// dependency id must reference a task in the set; a dangling reference is
// rejected here, before any scheduling starts.
type TaskSet struct {
	tasks []*Task
	byID  map[TaskID]*Task
}

// NewTaskSet validates references and orders tasks by id so the engine's
// output is independent of input iteration order.
func NewTaskSet(tasks []*Task) (*TaskSet, error) {
	byID := make(map[TaskID]*Task, len(tasks))
	for _, t := range tasks {
		if _, ok := byID[t.ID()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTaskID, t.ID())
		}
		byID[t.ID()] = t
	}
	for _, t := range tasks {
		for _, dep := range t.DependencyIDs() {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%w: task %s depends on %s", ErrUnknownDependency, t.ID(), dep)
			}
		}
	}

	ordered := make([]*Task, len(tasks))
	copy(ordered, tasks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID() < ordered[j].ID() })

	return &TaskSet{tasks: ordered, byID: byID}, nil
}

// Tasks returns the tasks in canonical (id-ascending) order.
func (s *TaskSet) Tasks() []*Task {
	tasks := make([]*Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// Get looks up a task by id.
func (s *TaskSet) Get(id TaskID) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return t, nil
}

// Len returns the number of tasks in the set.
func (s *TaskSet) Len() int { return len(s.tasks) }

// DateOf normalizes a timestamp to the start of its day in UTC. The engine
// operates at day granularity.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
