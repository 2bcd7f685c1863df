package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alfa-forge/internal/logger"
	"alfa-forge/internal/services"
)

// Bot — канал доставки уведомлений в Telegram и обработчик кнопок в них.
// Пользователь привязывает чат, регистрируя chat id как устройство
// с платформой telegram.
type Bot struct {
	bot      *tgbotapi.BotAPI
	services *services.ServiceManager
	handlers map[string]func(context.Context, *tgbotapi.Message)
	now      func() time.Time
}

func NewBot(token string, serviceManager *services.ServiceManager) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	bot := &Bot{
		bot:      botAPI,
		services: serviceManager,
		handlers: make(map[string]func(context.Context, *tgbotapi.Message)),
		now:      time.Now,
	}

	bot.registerHandlers()
	logger.Info("🤖 Бот инициализирован", "username", botAPI.Self.UserName)
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.handlers["/start"] = b.handleStart
	b.handlers["/help"] = b.handleStart
	b.handlers["/habits"] = b.handleHabits
	b.handlers["/today"] = b.handleToday
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.bot.Send(msg)
	return err
}

// SendNotification отправляет уведомление в чат. К напоминанию о привычке
// добавляется кнопка «Выполнил».
func (b *Bot) SendNotification(ctx context.Context, chatID int64, n services.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, formatNotification(n))
	msg.ParseMode = tgbotapi.ModeHTML
	if habitID, ok := reminderHabitID(n); ok {
		msg.ReplyMarkup = habitKeyboard(habitID)
	}

	_, err := b.bot.Send(msg)
	return err
}

func (b *Bot) GetUsername() string {
	return b.bot.Self.UserName
}

// Start читает обновления, пока не отменён ctx
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)
	defer b.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	b.handleMessage(ctx, update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !strings.HasPrefix(msg.Text, "/") {
		return
	}

	command := strings.Fields(msg.Text)[0]
	// в группах команда приходит как /habits@botname
	command, _, _ = strings.Cut(command, "@")

	if handler, exists := b.handlers[command]; exists {
		handler(ctx, msg)
		return
	}
	b.reply(msg.Chat.ID, "❌ Неизвестная команда. Используйте /help")
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	answer := "✅"
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, answer)); err != nil {
			logger.Warn("⚠️ Ошибка ответа на callback", "err", err)
		}
	}()

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	logger.Debug("Получен callback", "data", callback.Data, "chat", chatID)

	habitID, ok := parseCompleteHabit(callback.Data)
	if !ok {
		answer = "🤷"
		return
	}
	if err := b.completeHabit(ctx, chatID, habitID); err != nil {
		answer = "❌"
	}
}

// reply отправляет ответ в чат, ошибка только логируется
func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		logger.Error("❌ Ошибка отправки сообщения в Telegram", "chat", chatID, "err", err)
	}
}
