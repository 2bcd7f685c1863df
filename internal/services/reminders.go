package services

import (
	"context"
	"fmt"
	"time"

	"alfa-forge/internal/database"
	"alfa-forge/internal/logger"
	"alfa-forge/internal/utils"
)

const DefaultTaskLookahead = 15 * time.Minute

// ReminderScanner опрашивает БД и отправляет напоминания. Рассылки не
// дедуплицируются: задача в окне попадёт в каждый проход, пока не выйдет из него.
type ReminderScanner struct {
	repository *database.Repository
	dispatcher Dispatcher
	lookahead  time.Duration
	now        func() time.Time
}

func NewReminderScanner(repo *database.Repository, dispatcher Dispatcher, lookahead time.Duration) *ReminderScanner {
	if lookahead <= 0 {
		lookahead = DefaultTaskLookahead
	}
	return &ReminderScanner{
		repository: repo,
		dispatcher: dispatcher,
		lookahead:  lookahead,
		now:        time.Now,
	}
}

// SweepHabits отправляет напоминания по привычкам, у которых время
// напоминания совпадает с текущей минутой по часам сервера.
// Возвращает число успешно отправленных напоминаний.
func (rs *ReminderScanner) SweepHabits(ctx context.Context) (int, error) {
	clock := utils.Clock(rs.now())

	habits, err := rs.repository.GetHabitsForReminder(ctx, clock)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения привычек для напоминаний: %w", err)
	}
	logger.Debug("🔔 Проверка напоминаний по привычкам", "clock", clock, "found", len(habits))

	sent := 0
	for _, h := range habits {
		req := SendRequest{
			UserIDs: []string{h.UserID},
			Notification: Notification{
				Title:     "Время привычки",
				Message:   h.Name,
				Type:      NotificationHabitReminder,
				Data:      map[string]any{"type": "habit", "habitId": h.ID},
				ActionURL: "app://habits",
			},
			Immediate: true,
		}
		if rs.dispatch(ctx, "habit", h.ID, req) {
			sent++
		}
	}
	return sent, nil
}

// SweepTasks отправляет напоминания по задачам, у которых напоминание или
// дедлайн попадает в окно [now, now+lookahead]. Статус задачи не учитывается.
func (rs *ReminderScanner) SweepTasks(ctx context.Context) (int, error) {
	now := rs.now()

	tasks, err := rs.repository.GetTasksForReminder(ctx, now, now.Add(rs.lookahead))
	if err != nil {
		return 0, fmt.Errorf("ошибка получения задач для напоминаний: %w", err)
	}
	logger.Debug("🔔 Проверка напоминаний по задачам", "found", len(tasks))

	sent := 0
	for _, t := range tasks {
		req := SendRequest{
			UserIDs: []string{t.UserID},
			Notification: Notification{
				Title:     "Задача скоро истекает",
				Message:   t.Title,
				Type:      NotificationTaskReminder,
				Data:      map[string]any{"type": "task", "taskId": t.ID},
				ActionURL: "app://tasks",
			},
			Immediate: true,
		}
		if rs.dispatch(ctx, "task", t.ID, req) {
			sent++
		}
	}
	return sent, nil
}

func (rs *ReminderScanner) dispatch(ctx context.Context, kind, id string, req SendRequest) bool {
	if err := rs.dispatcher.Send(ctx, req); err != nil {
		remindersFailed.WithLabelValues(kind).Inc()
		logger.Warn("❌ Ошибка отправки напоминания", "kind", kind, "id", id, "err", err)
		return false
	}
	remindersDispatched.WithLabelValues(kind).Inc()
	logger.Info("📨 Напоминание отправлено", "kind", kind, "id", id)
	return true
}
