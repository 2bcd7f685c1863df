package services

import (
	"time"

	"alfa-forge/internal/database"
)

type ServiceManager struct {
	Habit        *HabitService
	Analytics    *AnalyticsService
	Task         *TaskService
	Notification *NotificationService
	Reminders    *ReminderScanner
	repository   *database.Repository
}

// NewServiceManager собирает сервисы поверх одной БД. pushSender может быть nil,
// чат-канал подключается через SetChatSender, когда бот запущен.
func NewServiceManager(db *database.Database, pushSender PushSender, taskLookahead time.Duration) *ServiceManager {
	repo := database.NewRepository(db)
	habits := NewHabitService(repo)
	notifications := NewNotificationService(repo, nil, pushSender)

	return &ServiceManager{
		Habit:        habits,
		Analytics:    NewAnalyticsService(repo, habits),
		Task:         NewTaskService(repo),
		Notification: notifications,
		Reminders:    NewReminderScanner(repo, notifications, taskLookahead),
		repository:   repo,
	}
}

func (sm *ServiceManager) SetChatSender(sender ChatSender) {
	sm.Notification.SetChatSender(sender)
}
