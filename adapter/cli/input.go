package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

// taskFile is the YAML schema for task and outcome input files.
type taskFile struct {
	Tasks []struct {
		ID               string   `yaml:"id"`
		Title            string   `yaml:"title"`
		EstimatedMinutes int      `yaml:"estimated_minutes"`
		DueDate          string   `yaml:"due_date"`
		Priority         int      `yaml:"priority"`
		CreatedAt        string   `yaml:"created_at"`
		DependsOn        []string `yaml:"depends_on"`
	} `yaml:"tasks"`
	Outcomes []struct {
		TaskID        string  `yaml:"task_id"`
		OverrunFactor float64 `yaml:"overrun_factor"`
		Note          string  `yaml:"note"`
	} `yaml:"outcomes"`
}

// loadTaskFile parses a YAML task file into a validated task set plus the
// historical outcomes it carries.
func loadTaskFile(path string) (*domain.TaskSet, map[domain.TaskID]domain.TaskOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read task file %s: %w", path, err)
	}

	var file taskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}

	tasks := make([]*domain.Task, 0, len(file.Tasks))
	for _, raw := range file.Tasks {
		due, err := time.Parse("2006-01-02", raw.DueDate)
		if err != nil {
			return nil, nil, fmt.Errorf("task %s: invalid due_date %q, use YYYY-MM-DD: %w", raw.ID, raw.DueDate, err)
		}
		created := due
		if raw.CreatedAt != "" {
			created, err = time.Parse(time.RFC3339, raw.CreatedAt)
			if err != nil {
				return nil, nil, fmt.Errorf("task %s: invalid created_at %q: %w", raw.ID, raw.CreatedAt, err)
			}
		}
		deps := make([]domain.TaskID, 0, len(raw.DependsOn))
		for _, dep := range raw.DependsOn {
			deps = append(deps, domain.TaskID(dep))
		}
		t, err := domain.NewTask(domain.TaskID(raw.ID), raw.Title, raw.EstimatedMinutes, due, raw.Priority, created, deps...)
		if err != nil {
			return nil, nil, fmt.Errorf("task %s: %w", raw.ID, err)
		}
		tasks = append(tasks, t)
	}

	set, err := domain.NewTaskSet(tasks)
	if err != nil {
		return nil, nil, err
	}

	outcomes := make(map[domain.TaskID]domain.TaskOutcome, len(file.Outcomes))
	for _, raw := range file.Outcomes {
		o, err := domain.NewTaskOutcome(domain.TaskID(raw.TaskID), raw.OverrunFactor, raw.Note)
		if err != nil {
			return nil, nil, fmt.Errorf("outcome %s: %w", raw.TaskID, err)
		}
		outcomes[domain.TaskID(raw.TaskID)] = o
	}

	return set, outcomes, nil
}

// writeTaskFile renders a task set plus outcomes back into the YAML input
// schema, for the generate command.
func writeTaskFile(path string, set *domain.TaskSet, outcomes map[domain.TaskID]domain.TaskOutcome) error {
	var file taskFile
	for _, t := range set.Tasks() {
		deps := make([]string, 0, len(t.DependencyIDs()))
		for _, dep := range t.DependencyIDs() {
			deps = append(deps, string(dep))
		}
		file.Tasks = append(file.Tasks, struct {
			ID               string   `yaml:"id"`
			Title            string   `yaml:"title"`
			EstimatedMinutes int      `yaml:"estimated_minutes"`
			DueDate          string   `yaml:"due_date"`
			Priority         int      `yaml:"priority"`
			CreatedAt        string   `yaml:"created_at"`
			DependsOn        []string `yaml:"depends_on"`
		}{
			ID:               string(t.ID()),
			Title:            t.Title(),
			EstimatedMinutes: t.EstimatedMinutes(),
			DueDate:          t.DueDate().Format("2006-01-02"),
			Priority:         t.Priority(),
			CreatedAt:        t.CreatedAt().Format(time.RFC3339),
			DependsOn:        deps,
		})
	}
	for _, t := range set.Tasks() {
		o, ok := outcomes[t.ID()]
		if !ok {
			continue
		}
		file.Outcomes = append(file.Outcomes, struct {
			TaskID        string  `yaml:"task_id"`
			OverrunFactor float64 `yaml:"overrun_factor"`
			Note          string  `yaml:"note"`
		}{
			TaskID:        string(o.TaskID()),
			OverrunFactor: o.OverrunFactor(),
			Note:          o.Note(),
		})
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to encode task file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write task file %s: %w", path, err)
	}
	return nil
}
