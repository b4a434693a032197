package domain

import (
	"errors"
	"time"
)

var (
	ErrNonPositiveAllocation = errors.New("allocation minutes must be positive")
	ErrOverCapacity          = errors.New("allocation exceeds remaining day capacity")
)

// ScheduledSlice is a single allocation of minutes for a task on a day.
// A task with more than one slice was split across days.
type ScheduledSlice struct {
	TaskID  TaskID    `json:"task_id"`
	Day     time.Time `json:"day"`
	Minutes int       `json:"minutes"`
}

// DaySchedule accumulates the slices allocated on one working day.
type DaySchedule struct {
	day             time.Time
	capacityMinutes int
	slices          []ScheduledSlice
}

// NewDaySchedule creates an empty schedule for one day.
func NewDaySchedule(day time.Time, capacityMinutes int) *DaySchedule {
	return &DaySchedule{
		day:             DateOf(day),
		capacityMinutes: capacityMinutes,
	}
}

func (d *DaySchedule) Day() time.Time       { return d.day }
func (d *DaySchedule) CapacityMinutes() int { return d.capacityMinutes }

// Slices returns a copy of the day's allocations in placement order.
func (d *DaySchedule) Slices() []ScheduledSlice {
	slices := make([]ScheduledSlice, len(d.slices))
	copy(slices, d.slices)
	return slices
}

// AllocatedMinutes is the sum of all slice minutes on this day.
func (d *DaySchedule) AllocatedMinutes() int {
	total := 0
	for _, s := range d.slices {
		total += s.Minutes
	}
	return total
}

// RemainingCapacity is the unallocated portion of the day.
func (d *DaySchedule) RemainingCapacity() int {
	return d.capacityMinutes - d.AllocatedMinutes()
}

// Allocate places minutes for a task on this day, guarding the capacity
// invariant.
func (d *DaySchedule) Allocate(taskID TaskID, minutes int) (ScheduledSlice, error) {
	if minutes <= 0 {
		return ScheduledSlice{}, ErrNonPositiveAllocation
	}
	if minutes > d.RemainingCapacity() {
		return ScheduledSlice{}, ErrOverCapacity
	}
	slice := ScheduledSlice{TaskID: taskID, Day: d.day, Minutes: minutes}
	d.slices = append(d.slices, slice)
	return slice, nil
}

// IsCrunch reports whether the day's utilization reaches the threshold.
func (d *DaySchedule) IsCrunch(threshold float64) bool {
	if d.capacityMinutes == 0 {
		return false
	}
	return float64(d.AllocatedMinutes())/float64(d.capacityMinutes) >= threshold
}
