package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfa-forge/internal/database"
)

func setupTaskService(t *testing.T, now time.Time) *TaskService {
	t.Helper()
	ts := NewTaskService(setupTestRepo(t))
	ts.now = func() time.Time { return now }
	return ts
}

func TestCreateTask(t *testing.T) {
	ts := setupTaskService(t, fixedNow)

	task, err := ts.Create(context.Background(), "user-1", CreateTaskInput{
		Title:    "Купить кроссовки",
		Deadline: "2026-10-16T18:00:00+03:00",
	})
	require.NoError(t, err)

	assert.Equal(t, database.TaskAssigned, task.Status)
	assert.Equal(t, database.PriorityMedium, task.Priority)
	assert.True(t, time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC).Equal(task.Deadline))

	_, err = ts.Create(context.Background(), "user-1", CreateTaskInput{Title: "x", Deadline: "завтра"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deadline", vErr.Field)
}

func TestCompleteAndUncompleteTask(t *testing.T) {
	ctx := context.Background()
	ts := setupTaskService(t, fixedNow)

	task, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "Отчёт", Deadline: "2026-10-16T09:00:00Z"})
	require.NoError(t, err)

	done, err := ts.Complete(ctx, task.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, database.TaskDone, done.Status)

	_, err = ts.Complete(ctx, task.ID, "user-2")
	assert.ErrorIs(t, err, ErrForbidden)

	undone, err := ts.Uncomplete(ctx, task.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, database.TaskAssigned, undone.Status)

	_, err = ts.Get(ctx, "missing", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOverdueAndUpcoming(t *testing.T) {
	ctx := context.Background()
	ts := setupTaskService(t, fixedNow)

	late, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "Просрочено", Deadline: "2026-10-15T10:00:00Z"})
	require.NoError(t, err)
	lateDone, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "Сделано", Deadline: "2026-10-15T09:00:00Z"})
	require.NoError(t, err)
	_, err = ts.Complete(ctx, lateDone.ID, "user-1")
	require.NoError(t, err)

	remind := "2026-10-15T12:30:00Z"
	soon, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "Скоро", Deadline: "2026-10-17T10:00:00Z", ReminderAt: &remind})
	require.NoError(t, err)

	overdue, err := ts.Overdue(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	upcoming, err := ts.UpcomingReminders(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, soon.ID, upcoming[0].ID)
}

func TestTaskStats(t *testing.T) {
	ctx := context.Background()
	ts := setupTaskService(t, fixedNow)

	a, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "a", Priority: database.PriorityHigh, Deadline: "2026-10-20T10:00:00Z"})
	require.NoError(t, err)
	_, err = ts.Create(ctx, "user-1", CreateTaskInput{Title: "b", Deadline: "2026-10-14T10:00:00Z", IsRecurring: true, RecurringType: "DAILY"})
	require.NoError(t, err)
	_, err = ts.Complete(ctx, a.ID, "user-1")
	require.NoError(t, err)

	stats, err := ts.Stats(ctx, "user-1", "2026-10-15", "2026-10-15")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Summary.TotalTasks)
	assert.Equal(t, 1, stats.Summary.CompletedTasks)
	assert.Equal(t, 1, stats.Summary.OverdueTasks)
	assert.Equal(t, 50.0, stats.Summary.CompletionRate)
	assert.Equal(t, 1, stats.Distribution.ByPriority[database.PriorityHigh])
	assert.Equal(t, 1, stats.Distribution.RecurringTasks)
}

func TestUpdateTask_EmptyReminderClears(t *testing.T) {
	ctx := context.Background()
	ts := setupTaskService(t, fixedNow)
	reminder := "2026-10-15T12:05:00Z"

	task, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "Созвон", Deadline: "2026-10-17T09:00:00Z", ReminderAt: &reminder})
	require.NoError(t, err)
	require.NotNil(t, task.ReminderAt)

	empty := ""
	updated, err := ts.Update(ctx, task.ID, "user-1", UpdateTaskInput{ReminderAt: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.ReminderAt)

	due, err := ts.repository.GetTasksForReminder(ctx, fixedNow, fixedNow.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = ts.Update(ctx, task.ID, "user-1", UpdateTaskInput{Deadline: &empty})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deadline", vErr.Field)

	got, err := ts.Get(ctx, task.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC).Equal(got.Deadline))
}

func TestCreateTask_EmptyReminderIsNone(t *testing.T) {
	ts := setupTaskService(t, fixedNow)
	empty := ""

	task, err := ts.Create(context.Background(), "user-1", CreateTaskInput{Title: "x", Deadline: "2026-10-16T09:00:00Z", ReminderAt: &empty})
	require.NoError(t, err)
	assert.Nil(t, task.ReminderAt)

	_, err = ts.Create(context.Background(), "user-1", CreateTaskInput{Title: "x", Deadline: ""})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deadline", vErr.Field)
}

func TestTasksByHabit(t *testing.T) {
	ctx := context.Background()
	ts := setupTaskService(t, fixedNow)
	habitID := "habit-1"

	late, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "late", Deadline: "2026-10-20T10:00:00Z", HabitID: &habitID})
	require.NoError(t, err)
	early, err := ts.Create(ctx, "user-1", CreateTaskInput{Title: "early", Deadline: "2026-10-18T10:00:00Z", HabitID: &habitID})
	require.NoError(t, err)
	_, err = ts.Create(ctx, "user-1", CreateTaskInput{Title: "other", Deadline: "2026-10-17T10:00:00Z"})
	require.NoError(t, err)

	tasks, err := ts.ByHabit(ctx, "user-1", habitID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, early.ID, tasks[0].ID)
	assert.Equal(t, late.ID, tasks[1].ID)

	tasks, err = ts.ByHabit(ctx, "user-2", habitID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskStats_RejectsBadPeriod(t *testing.T) {
	ts := setupTaskService(t, fixedNow)

	_, err := ts.Stats(context.Background(), "user-1", "2026-10-15", "2026-10-01")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "endDate", vErr.Field)

	_, err = ts.Stats(context.Background(), "user-1", "2026-13-01", "2026-10-01")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "startDate", vErr.Field)
}
