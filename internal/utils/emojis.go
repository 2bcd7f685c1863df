package utils

// Вспомогательные функции для отображения типов уведомлений
func GetNotificationEmoji(notificationType string) string {
	switch notificationType {
	case "HABIT_REMINDER":
		return "🔁"
	case "TASK_REMINDER":
		return "⏰"
	case "WORKOUT_REMINDER":
		return "🏋️"
	case "ACHIEVEMENT", "MILESTONE":
		return "🏆"
	case "STREAK":
		return "🔥"
	case "MOTIVATIONAL":
		return "💪"
	default:
		return "🔔"
	}
}

func GetPriorityEmoji(priority string) string {
	switch priority {
	case "HIGH":
		return "🔴"
	case "MEDIUM":
		return "🟡"
	case "LOW":
		return "🟢"
	default:
		return "📌"
	}
}
