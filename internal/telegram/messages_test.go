package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alfa-forge/internal/database"
	"alfa-forge/internal/services"
)

func TestFormatNotification_EscapesHTML(t *testing.T) {
	text := formatNotification(services.Notification{
		Title:   "Время привычки",
		Message: "<b>Чтение</b> & заметки",
		Type:    services.NotificationHabitReminder,
	})

	assert.Equal(t, "🔁 <b>Время привычки</b>\n\n&lt;b&gt;Чтение&lt;/b&gt; &amp; заметки", text)
}

func TestReminderHabitID(t *testing.T) {
	id, ok := reminderHabitID(services.Notification{
		Type: services.NotificationHabitReminder,
		Data: map[string]any{"habitId": "h-1"},
	})
	assert.True(t, ok)
	assert.Equal(t, "h-1", id)

	_, ok = reminderHabitID(services.Notification{
		Type: services.NotificationTaskReminder,
		Data: map[string]any{"habitId": "h-1"},
	})
	assert.False(t, ok)

	_, ok = reminderHabitID(services.Notification{Type: services.NotificationHabitReminder})
	assert.False(t, ok)
}

func TestHabitKeyboardRoundTrip(t *testing.T) {
	kb := habitKeyboard("h-42")

	btn := kb.InlineKeyboard[0][0]
	assert.Equal(t, "✅ Выполнил", btn.Text)
	if assert.NotNil(t, btn.CallbackData) {
		id, ok := parseCompleteHabit(*btn.CallbackData)
		assert.True(t, ok)
		assert.Equal(t, "h-42", id)
	}

	_, ok := parseCompleteHabit("complete_habit_")
	assert.False(t, ok)
	_, ok = parseCompleteHabit("snooze_1")
	assert.False(t, ok)
}

func TestFormatHabits(t *testing.T) {
	assert.Equal(t, "📭 Привычек пока нет", formatHabits(nil))

	text := formatHabits([]database.Habit{
		{Name: "Бег", IsActive: true, CurrentStreak: 3, MaxStreak: 5, Strength: 40},
	})
	assert.Contains(t, text, "<b>Бег</b>")
	assert.Contains(t, text, "🔥 3 (макс. 5) · 💪 40%")
}

func TestFormatTasks(t *testing.T) {
	assert.Equal(t, "📭 На сегодня задач нет", formatTasks(nil))

	text := formatTasks([]database.Task{
		{Title: "Отчёт", Priority: database.PriorityHigh, Status: database.TaskAssigned, Deadline: time.Now()},
		{Title: "Звонок", Priority: database.PriorityLow, Status: database.TaskDone, Deadline: time.Now()},
	})
	assert.Contains(t, text, "🔴 Отчёт")
	assert.Contains(t, text, "✅ Звонок")
}

func TestFormatStartShowsChatID(t *testing.T) {
	assert.Contains(t, formatStart(123456), "<code>123456</code>")
}
