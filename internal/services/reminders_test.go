package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfa-forge/internal/database"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	requests []SendRequest
	failFor  map[string]bool // userId -> error
}

func (f *fakeDispatcher) Send(_ context.Context, req SendRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.failFor[req.UserIDs[0]] {
		return errors.New("delivery failed")
	}
	return nil
}

func newTestScanner(t *testing.T, now time.Time) (*ReminderScanner, *database.Repository, *fakeDispatcher) {
	t.Helper()
	repo := setupTestRepo(t)
	d := &fakeDispatcher{failFor: map[string]bool{}}
	rs := NewReminderScanner(repo, d, 0)
	rs.now = func() time.Time { return now }
	return rs, repo, d
}

func insertReminderHabit(t *testing.T, repo *database.Repository, userID, clock string, active, enabled bool) database.Habit {
	t.Helper()
	h := database.Habit{
		ID: uuid.NewString(), UserID: userID, Name: "Медитация", IconName: "zen", ColorHex: "#00AA00",
		FrequencyType: database.FrequencyDaily, Difficulty: database.DifficultyEasy,
		ReminderTime: &clock, EnableReminders: enabled, IsActive: active, Tags: []string{},
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	require.NoError(t, repo.CreateHabit(context.Background(), h))
	return h
}

func TestSweepHabits_ExactMinute(t *testing.T) {
	ctx := context.Background()
	at7 := time.Date(2026, 10, 15, 7, 0, 30, 0, time.Local)
	rs, repo, d := newTestScanner(t, at7)

	due := insertReminderHabit(t, repo, "user-1", "07:00", true, true)
	insertReminderHabit(t, repo, "user-2", "07:01", true, true)
	insertReminderHabit(t, repo, "user-3", "07:00", false, true)
	insertReminderHabit(t, repo, "user-4", "07:00", true, false)

	sent, err := rs.SweepHabits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, d.requests, 1)
	req := d.requests[0]
	assert.Equal(t, []string{"user-1"}, req.UserIDs)
	assert.Equal(t, "Время привычки", req.Notification.Title)
	assert.Equal(t, "Медитация", req.Notification.Message)
	assert.Equal(t, NotificationHabitReminder, req.Notification.Type)
	assert.Equal(t, due.ID, req.Notification.Data["habitId"])
	assert.True(t, req.Immediate)

	rs.now = func() time.Time { return at7.Add(time.Minute) }
	sent, err = rs.SweepHabits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "07:01 matches the other habit only")
	assert.Equal(t, []string{"user-2"}, d.requests[1].UserIDs)
}

func TestSweepHabits_NeighbouringMinutesDoNotFire(t *testing.T) {
	at7 := time.Date(2026, 10, 15, 7, 0, 0, 0, time.Local)
	rs, repo, d := newTestScanner(t, at7)
	insertReminderHabit(t, repo, "user-1", "07:00", true, true)

	for _, now := range []time.Time{at7.Add(-time.Minute), at7.Add(time.Minute)} {
		rs.now = func() time.Time { return now }
		sent, err := rs.SweepHabits(context.Background())
		require.NoError(t, err)
		assert.Zero(t, sent, now.Format("15:04"))
	}
	assert.Empty(t, d.requests)
}

func TestSweepHabits_FailureDoesNotAbort(t *testing.T) {
	at7 := time.Date(2026, 10, 15, 7, 0, 0, 0, time.Local)
	rs, repo, d := newTestScanner(t, at7)

	insertReminderHabit(t, repo, "user-1", "07:00", true, true)
	insertReminderHabit(t, repo, "user-2", "07:00", true, true)
	d.failFor["user-1"] = true

	sent, err := rs.SweepHabits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, d.requests, 2)
}

func TestSweepTasks_RepeatsWhileInWindow(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	rs, repo, d := newTestScanner(t, start)

	task := database.Task{
		ID: uuid.NewString(), UserID: "user-1", Title: "Сдать отчёт", Priority: database.PriorityHigh,
		Status: database.TaskDone, Deadline: start.Add(10 * time.Minute), Tags: []string{},
		CreatedAt: start, UpdatedAt: start,
	}
	require.NoError(t, repo.CreateTask(ctx, task))

	for _, offset := range []time.Duration{0, 5 * time.Minute, 10 * time.Minute, 15 * time.Minute} {
		rs.now = func() time.Time { return start.Add(offset) }
		_, err := rs.SweepTasks(ctx)
		require.NoError(t, err)
	}

	// ticks at 0, 5 and 10 minutes see the deadline; at 15 it has passed
	require.Len(t, d.requests, 3)
	for _, req := range d.requests {
		assert.Equal(t, "Задача скоро истекает", req.Notification.Title)
		assert.Equal(t, "Сдать отчёт", req.Notification.Message)
		assert.Equal(t, task.ID, req.Notification.Data["taskId"])
	}
}

func TestSweepTasks_UsesReminderAt(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	rs, repo, d := newTestScanner(t, now)

	remind := now.Add(5 * time.Minute)
	require.NoError(t, repo.CreateTask(ctx, database.Task{
		ID: uuid.NewString(), UserID: "user-1", Title: "Позвонить", Priority: database.PriorityLow,
		Status: database.TaskAssigned, Deadline: now.Add(48 * time.Hour), ReminderAt: &remind,
		Tags: []string{}, CreatedAt: now, UpdatedAt: now,
	}))

	sent, err := rs.SweepTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, d.requests, 1)
}
