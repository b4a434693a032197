package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

var (
	testDue     = time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	testCreated = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
)

func mustTask(t *testing.T, id string, deps ...domain.TaskID) *domain.Task {
	t.Helper()
	tsk, err := domain.NewTask(domain.TaskID(id), "Task "+id, 60, testDue, 3, testCreated, deps...)
	require.NoError(t, err)
	return tsk
}

func TestNewTask(t *testing.T) {
	tsk, err := domain.NewTask("write-report", "Write report", 120, testDue, 2, testCreated)

	require.NoError(t, err)
	assert.Equal(t, domain.TaskID("write-report"), tsk.ID())
	assert.Equal(t, "Write report", tsk.Title())
	assert.Equal(t, 120, tsk.EstimatedMinutes())
	assert.Equal(t, 2, tsk.Priority())
	assert.False(t, tsk.HasDependencies())
}

func TestNewTask_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		id       domain.TaskID
		title    string
		estimate int
		priority int
		wantErr  error
	}{
		{"empty id", "", "Title", 60, 3, domain.ErrEmptyTaskID},
		{"empty title", "t1", "", 60, 3, domain.ErrEmptyTitle},
		{"whitespace title", "t1", "  \t ", 60, 3, domain.ErrEmptyTitle},
		{"zero estimate", "t1", "Title", 0, 3, domain.ErrNonPositiveEstimate},
		{"negative estimate", "t1", "Title", -30, 3, domain.ErrNonPositiveEstimate},
		{"priority too low", "t1", "Title", 60, 0, domain.ErrInvalidPriority},
		{"priority too high", "t1", "Title", 60, 6, domain.ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewTask(tt.id, tt.title, tt.estimate, testDue, tt.priority, testCreated)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewTask_TrimsTitle(t *testing.T) {
	tsk, err := domain.NewTask("t1", "  Write report  ", 60, testDue, 3, testCreated)

	require.NoError(t, err)
	assert.Equal(t, "Write report", tsk.Title())
}

func TestNewTask_NormalizesDueDate(t *testing.T) {
	due := time.Date(2026, 9, 18, 17, 45, 12, 0, time.FixedZone("CET", 3600))
	tsk, err := domain.NewTask("t1", "Title", 60, due, 3, testCreated)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC), tsk.DueDate())
}

func TestNewTask_DeduplicatesAndSortsDependencies(t *testing.T) {
	tsk, err := domain.NewTask("t1", "Title", 60, testDue, 3, testCreated, "c", "a", "b", "a")

	require.NoError(t, err)
	assert.Equal(t, []domain.TaskID{"a", "b", "c"}, tsk.DependencyIDs())
	assert.True(t, tsk.HasDependencies())
}

func TestNewTaskSet_RejectsDuplicateID(t *testing.T) {
	_, err := domain.NewTaskSet([]*domain.Task{
		mustTask(t, "t1"),
		mustTask(t, "t1"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateTaskID)
}

func TestNewTaskSet_RejectsUnknownDependency(t *testing.T) {
	_, err := domain.NewTaskSet([]*domain.Task{
		mustTask(t, "t1", "ghost"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownDependency)
}

func TestNewTaskSet_CanonicalOrder(t *testing.T) {
	set, err := domain.NewTaskSet([]*domain.Task{
		mustTask(t, "zeta"),
		mustTask(t, "alpha"),
		mustTask(t, "mid"),
	})

	require.NoError(t, err)
	require.Equal(t, 3, set.Len())
	ids := make([]domain.TaskID, 0, set.Len())
	for _, tsk := range set.Tasks() {
		ids = append(ids, tsk.ID())
	}
	assert.Equal(t, []domain.TaskID{"alpha", "mid", "zeta"}, ids)
}

func TestTaskSet_Get(t *testing.T) {
	set, err := domain.NewTaskSet([]*domain.Task{mustTask(t, "t1")})
	require.NoError(t, err)

	tsk, err := set.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskID("t1"), tsk.ID())

	_, err = set.Get("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
}

func TestNewTaskOutcome(t *testing.T) {
	o, err := domain.NewTaskOutcome("t1", 1.4, "ran long")

	require.NoError(t, err)
	assert.Equal(t, domain.TaskID("t1"), o.TaskID())
	assert.InDelta(t, 1.4, o.OverrunFactor(), 1e-9)
	assert.Equal(t, "ran long", o.Note())
}

func TestNewTaskOutcome_Invalid(t *testing.T) {
	_, err := domain.NewTaskOutcome("", 1.0, "")
	assert.ErrorIs(t, err, domain.ErrEmptyTaskID)

	_, err = domain.NewTaskOutcome("t1", 0, "")
	assert.ErrorIs(t, err, domain.ErrNonPositiveOverrun)

	_, err = domain.NewTaskOutcome("t1", -0.5, "")
	assert.ErrorIs(t, err, domain.ErrNonPositiveOverrun)
}
