package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alfa-forge/internal/database"
	"alfa-forge/internal/services"
	"alfa-forge/internal/utils"
)

const completeHabitPrefix = "complete_habit_"

// formatNotification собирает HTML-текст уведомления
func formatNotification(n services.Notification) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n\n", utils.GetNotificationEmoji(n.Type), html.EscapeString(n.Title)))
	sb.WriteString(html.EscapeString(n.Message))
	return sb.String()
}

// reminderHabitID возвращает id привычки, если уведомление — напоминание по привычке
func reminderHabitID(n services.Notification) (string, bool) {
	if n.Type != services.NotificationHabitReminder {
		return "", false
	}
	id, ok := n.Data["habitId"].(string)
	return id, ok && id != ""
}

func habitKeyboard(habitID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Выполнил", completeHabitPrefix+habitID),
		),
	)
}

// parseCompleteHabit достаёт id привычки из callback data кнопки «Выполнил»
func parseCompleteHabit(data string) (string, bool) {
	id, found := strings.CutPrefix(data, completeHabitPrefix)
	return id, found && id != ""
}

func formatStart(chatID int64) string {
	return fmt.Sprintf(`🎯 <b>Alfa Forge — привычки и задачи</b>

Ваш chat id: <code>%d</code>

Чтобы получать напоминания здесь, зарегистрируйте его в приложении как устройство с платформой <code>telegram</code>.

Команды:
/habits - Мои привычки
/today - Задачи на сегодня
/help - Помощь`, chatID)
}

func formatHabits(habits []database.Habit) string {
	if len(habits) == 0 {
		return "📭 Привычек пока нет"
	}

	var sb strings.Builder
	sb.WriteString("🔁 <b>Мои привычки</b>\n\n")
	for _, h := range habits {
		status := "⬜"
		if !h.IsActive {
			status = "⏸"
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n🔥 %d (макс. %d) · 💪 %d%%\n\n",
			status, html.EscapeString(h.Name), h.CurrentStreak, h.MaxStreak, h.Strength))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTasks(tasks []database.Task) string {
	if len(tasks) == 0 {
		return "📭 На сегодня задач нет"
	}

	var sb strings.Builder
	sb.WriteString("📅 <b>Задачи на сегодня</b>\n\n")
	for _, t := range tasks {
		status := utils.GetPriorityEmoji(string(t.Priority))
		if t.Status == database.TaskDone {
			status = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n⏰ %s\n\n",
			status, html.EscapeString(t.Title), t.Deadline.Local().Format("15:04")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCompleted(habit *database.Habit) string {
	return fmt.Sprintf("✅ <b>%s</b> — выполнено!\n🔥 Серия: %d · 💪 Сила: %d%%",
		html.EscapeString(habit.Name), habit.CurrentStreak, habit.Strength)
}
