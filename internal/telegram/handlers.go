package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alfa-forge/internal/logger"
	"alfa-forge/internal/services"
	"alfa-forge/internal/utils"
)

// handlers.go - обработчики команд Telegram бота

func (b *Bot) handleStart(_ context.Context, msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, formatStart(msg.Chat.ID))
}

func (b *Bot) handleHabits(ctx context.Context, msg *tgbotapi.Message) {
	userID, ok := b.chatOwner(ctx, msg.Chat.ID)
	if !ok {
		return
	}

	habits, err := b.services.Habit.List(ctx, userID)
	if err != nil {
		logger.Error("❌ Ошибка получения привычек", "user", userID, "err", err)
		b.reply(msg.Chat.ID, "❌ Ошибка получения привычек")
		return
	}
	b.reply(msg.Chat.ID, formatHabits(habits))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	userID, ok := b.chatOwner(ctx, msg.Chat.ID)
	if !ok {
		return
	}

	tasks, err := b.services.Task.Today(ctx, userID)
	if err != nil {
		logger.Error("❌ Ошибка получения задач", "user", userID, "err", err)
		b.reply(msg.Chat.ID, "❌ Ошибка получения задач")
		return
	}
	b.reply(msg.Chat.ID, formatTasks(tasks))
}

// completeHabit отмечает привычку выполненной за сегодня от имени владельца чата
func (b *Bot) completeHabit(ctx context.Context, chatID int64, habitID string) error {
	userID, ok := b.chatOwner(ctx, chatID)
	if !ok {
		return services.ErrNotFound
	}

	today := utils.FormatDate(utils.CalendarDay(b.now()))
	_, err := b.services.Habit.Complete(ctx, habitID, userID, services.CompleteHabitInput{Date: today})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrForbidden):
			b.reply(chatID, "❌ "+err.Error())
		default:
			logger.Error("❌ Ошибка отметки привычки", "habit", habitID, "err", err)
			b.reply(chatID, "❌ Ошибка обновления привычки")
		}
		return err
	}

	habit, err := b.services.Habit.Get(ctx, habitID, userID)
	if err != nil {
		b.reply(chatID, "✅ Привычка выполнена!")
		return nil
	}
	b.reply(chatID, formatCompleted(habit))
	return nil
}

func (b *Bot) chatOwner(ctx context.Context, chatID int64) (string, bool) {
	userID, err := b.services.Notification.ChatOwner(ctx, chatID)
	if err == nil {
		return userID, true
	}
	if errors.Is(err, services.ErrNotFound) {
		b.reply(chatID, "🔗 Чат не привязан к аккаунту. Отправьте /start, чтобы узнать chat id.")
	} else {
		logger.Error("❌ Ошибка поиска владельца чата", "chat", chatID, "err", err)
		b.reply(chatID, "❌ Внутренняя ошибка")
	}
	return "", false
}
