package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfa-forge/internal/database"
)

// fixedNow — 15.10.2026 12:00 по UTC
var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func setupTestRepo(t *testing.T) *database.Repository {
	t.Helper()
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewRepository(db)
}

func setupHabitService(t *testing.T) (*HabitService, *database.Repository) {
	t.Helper()
	repo := setupTestRepo(t)
	hs := NewHabitService(repo)
	hs.now = func() time.Time { return fixedNow }
	return hs, repo
}

func createTestHabit(t *testing.T, hs *HabitService, userID string) *database.Habit {
	t.Helper()
	reminder := "07:00"
	habit, err := hs.Create(context.Background(), userID, CreateHabitInput{
		Name:         "Зарядка",
		IconName:     "run",
		ColorHex:     "#FF8800",
		ReminderTime: &reminder,
	})
	require.NoError(t, err)
	return habit
}

func TestCreateHabit_Defaults(t *testing.T) {
	hs, _ := setupHabitService(t)

	habit := createTestHabit(t, hs, "user-1")

	assert.Equal(t, database.FrequencyDaily, habit.FrequencyType)
	assert.Equal(t, database.DifficultyMedium, habit.Difficulty)
	assert.True(t, habit.EnableReminders)
	assert.True(t, habit.IsActive)
	assert.Zero(t, habit.CurrentStreak)
	assert.Zero(t, habit.MaxStreak)
	assert.Zero(t, habit.Strength)
}

func TestCreateHabit_Validation(t *testing.T) {
	hs, _ := setupHabitService(t)
	bad := "7:00"

	_, err := hs.Create(context.Background(), "user-1", CreateHabitInput{
		Name: "Зарядка", IconName: "run", ColorHex: "#FF8800", ReminderTime: &bad,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reminderTime", vErr.Field)

	_, err = hs.Create(context.Background(), "user-1", CreateHabitInput{
		Name: "Зарядка", IconName: "run", ColorHex: "#F80",
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "colorHex", vErr.Field)
}

func TestComplete_ThreeConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	hs, repo := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	for _, d := range []string{"2026-10-13", "2026-10-14", "2026-10-15"} {
		_, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: d})
		require.NoError(t, err)
	}

	got, err := repo.GetHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 3, got.MaxStreak)
	assert.Equal(t, 10, got.Strength)
}

func TestComplete_SameDayUpdatesWithoutDuplicate(t *testing.T) {
	ctx := context.Background()
	hs, repo := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	first, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-10-15"})
	require.NoError(t, err)

	notes := "легко"
	quality := 4
	second, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{
		Date: "2026-10-15T21:30:00Z", Notes: &notes, Quality: &quality,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Notes)
	assert.Equal(t, "легко", *second.Notes)

	completions, err := repo.ListCompletions(ctx, habit.ID, 10)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.NotNil(t, completions[0].Quality)
	assert.Equal(t, 4, *completions[0].Quality)

	got, err := repo.GetHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
}

func TestComplete_SameDayKeepsOmittedFields(t *testing.T) {
	ctx := context.Background()
	hs, repo := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	notes := "утром"
	quality, mood := 5, 4
	_, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{
		Date: "2026-10-15", Notes: &notes, Quality: &quality, Mood: &mood,
	})
	require.NoError(t, err)

	again, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-10-15"})
	require.NoError(t, err)
	assert.True(t, again.Completed)

	completions, err := repo.ListCompletions(ctx, habit.ID, 10)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.NotNil(t, completions[0].Notes)
	assert.Equal(t, "утром", *completions[0].Notes)
	require.NotNil(t, completions[0].Quality)
	assert.Equal(t, 5, *completions[0].Quality)
	require.NotNil(t, completions[0].Mood)
	assert.Equal(t, 4, *completions[0].Mood)
	assert.Nil(t, completions[0].Duration)
}

func TestComplete_NotFoundAndForbidden(t *testing.T) {
	ctx := context.Background()
	hs, _ := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	_, err := hs.Complete(ctx, "missing", "user-1", CompleteHabitInput{Date: "2026-10-15"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = hs.Complete(ctx, habit.ID, "user-2", CompleteHabitInput{Date: "2026-10-15"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualError(t, err, "Нет доступа к этой привычке")
}

func TestComplete_InvalidInputRejectedBeforeStorage(t *testing.T) {
	hs, _ := setupHabitService(t)
	mood := 6

	_, err := hs.Complete(context.Background(), "missing", "user-1", CompleteHabitInput{Date: "2026-10-15", Mood: &mood})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "mood", vErr.Field)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUncomplete_RecomputesStreak(t *testing.T) {
	ctx := context.Background()
	hs, repo := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	for _, d := range []string{"2026-10-13", "2026-10-14", "2026-10-15"} {
		_, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: d})
		require.NoError(t, err)
	}

	require.NoError(t, hs.Uncomplete(ctx, habit.ID, "user-1", "2026-10-14"))

	got, err := repo.GetHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.MaxStreak)
	assert.Equal(t, 7, got.Strength)

	// no row for that day: still succeeds and recomputes
	require.NoError(t, hs.Uncomplete(ctx, habit.ID, "user-1", "2026-10-01"))
}

func TestRecompute_FollowsClock(t *testing.T) {
	ctx := context.Background()
	hs, repo := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	_, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-10-15"})
	require.NoError(t, err)

	hs.now = func() time.Time { return fixedNow.AddDate(0, 0, 3) }
	n, err := hs.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 1, got.MaxStreak)

	_, err = hs.Recompute(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateHabit_PartialAndOwnership(t *testing.T) {
	ctx := context.Background()
	hs, _ := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	name := "Пробежка"
	inactive := false
	updated, err := hs.Update(ctx, habit.ID, "user-1", UpdateHabitInput{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Пробежка", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "#FF8800", updated.ColorHex)

	_, err = hs.Update(ctx, habit.ID, "user-2", UpdateHabitInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListAndDeleteHabits(t *testing.T) {
	ctx := context.Background()
	hs, _ := setupHabitService(t)
	habit := createTestHabit(t, hs, "user-1")

	_, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-10-15"})
	require.NoError(t, err)
	_, err = hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-08-01"})
	require.NoError(t, err)

	habits, err := hs.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Len(t, habits[0].Completions, 1, "only the last 30 days are attached")

	one, err := hs.Get(ctx, habit.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, one.Completions, 2)

	assert.ErrorIs(t, hs.Delete(ctx, habit.ID, "user-2"), ErrForbidden)
	require.NoError(t, hs.Delete(ctx, habit.ID, "user-1"))
	_, err = hs.Get(ctx, habit.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHabitStats(t *testing.T) {
	ctx := context.Background()
	hs, repo := setupHabitService(t)
	as := NewAnalyticsService(repo, hs)
	habit := createTestHabit(t, hs, "user-1")

	q4, q5, mood := 4, 5, 3
	_, err := hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-10-14", Quality: &q4, Mood: &mood})
	require.NoError(t, err)
	_, err = hs.Complete(ctx, habit.ID, "user-1", CompleteHabitInput{Date: "2026-10-15", Quality: &q5})
	require.NoError(t, err)

	stats, err := as.GetHabitStats(ctx, habit.ID, "user-1", "2026-10-09", "2026-10-15")
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Period.TotalDays)
	assert.Equal(t, 2, stats.Period.CompletedDays)
	assert.Equal(t, 28.57, stats.Stats.CompletionRate)
	assert.Equal(t, 4.5, stats.Stats.AverageQuality)
	assert.Equal(t, 1.5, stats.Stats.AverageMood)
	assert.Equal(t, 2, stats.Habit.CurrentStreak)
	assert.NotEmpty(t, stats.Insights)

	_, err = as.GetHabitStats(ctx, habit.ID, "user-1", "2026-10-15", "2026-10-09")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestCreateHabit_UnknownCatalogEntries(t *testing.T) {
	ctx := context.Background()
	hs, _ := setupHabitService(t)
	base := CreateHabitInput{Name: "Вода", IconName: "water_drop", ColorHex: "#2196F3"}

	in := base
	in.CategoryID = "missing"
	_, err := hs.Create(ctx, "user-1", in)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Категория не найдена")

	in = base
	in.TemplateID = "missing"
	_, err = hs.Create(ctx, "user-1", in)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Шаблон не найден")

	in = base
	in.CategoryID, in.TemplateID = "health", "drink-water"
	habit, err := hs.Create(ctx, "user-1", in)
	require.NoError(t, err)
	assert.Equal(t, "health", habit.CategoryID)

	missing := "missing"
	_, err = hs.Update(ctx, habit.ID, "user-1", UpdateHabitInput{CategoryID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoriesAndTemplates(t *testing.T) {
	ctx := context.Background()
	hs, _ := setupHabitService(t)

	categories, err := hs.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	templates, err := hs.Templates(ctx, "")
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Медитация", templates[0].Name)
	assert.Equal(t, []string{"Начните с 5 минут", "Найдите тихое место"}, templates[0].Tips)

	templates, err = hs.Templates(ctx, "fitness")
	require.NoError(t, err)
	assert.Empty(t, templates)
}
