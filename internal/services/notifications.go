package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"alfa-forge/internal/database"
	"alfa-forge/internal/logger"
	"alfa-forge/internal/push"
)

const (
	NotificationHabitReminder = "HABIT_REMINDER"
	NotificationTaskReminder  = "TASK_REMINDER"
	NotificationSystem        = "SYSTEM"

	// PlatformTelegram — устройство, у которого playerId это chat id бота
	PlatformTelegram = "telegram"
)

type Notification struct {
	Title        string         `json:"title" validate:"required,max=200"`
	Message      string         `json:"message" validate:"required,max=2000"`
	Type         string         `json:"type" validate:"omitempty,oneof=HABIT_REMINDER TASK_REMINDER WORKOUT_REMINDER HEALTH_CHECK MOTIVATIONAL ACHIEVEMENT MILESTONE STREAK SYSTEM"`
	Data         map[string]any `json:"data,omitempty"`
	ActionURL    string         `json:"actionUrl,omitempty"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
}

type SendRequest struct {
	UserIDs      []string     `json:"userIds" validate:"required,min=1,dive,required"`
	Notification Notification `json:"notification"`
	Immediate    bool         `json:"immediate"`
}

// Dispatcher доставляет уведомление всем устройствам указанных пользователей
type Dispatcher interface {
	Send(ctx context.Context, req SendRequest) error
}

// ChatSender отправляет уведомление в чат мессенджера
type ChatSender interface {
	SendNotification(ctx context.Context, chatID int64, n Notification) error
}

// PushSender отправляет мобильный push
type PushSender interface {
	Send(ctx context.Context, msg push.Message) error
}

type RegisterDeviceInput struct {
	PlayerID string `json:"playerId" validate:"required,max=200"`
	Platform string `json:"platform" validate:"required,oneof=ios android web telegram"`
}

type NotificationService struct {
	repository *database.Repository
	chat       ChatSender
	push       PushSender
	now        func() time.Time
}

// NewNotificationService создаёт диспетчер. chat и pusher могут быть nil:
// соответствующий канал тогда пропускается.
func NewNotificationService(repo *database.Repository, chat ChatSender, pusher PushSender) *NotificationService {
	return &NotificationService{
		repository: repo,
		chat:       chat,
		push:       pusher,
		now:        time.Now,
	}
}

// SetChatSender подключает чат-канал после создания сервиса (бот создаётся позже)
func (ns *NotificationService) SetChatSender(chat ChatSender) {
	ns.chat = chat
}

// Send раскладывает уведомление по каналам. Ошибки каналов объединяются,
// недоставка в один канал не мешает остальным.
func (ns *NotificationService) Send(ctx context.Context, req SendRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	devices, err := ns.repository.ListDevicesByUsers(ctx, req.UserIDs)
	if err != nil {
		return fmt.Errorf("ошибка получения устройств: %w", err)
	}

	var errs []error
	var playerIDs []string
	for _, d := range devices {
		if d.Platform != PlatformTelegram {
			playerIDs = append(playerIDs, d.PlayerID)
			continue
		}
		if ns.chat == nil {
			continue
		}
		chatID, err := strconv.ParseInt(d.PlayerID, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("некорректный chat id %q: %w", d.PlayerID, err))
			continue
		}
		if err := ns.chat.SendNotification(ctx, chatID, req.Notification); err != nil {
			errs = append(errs, fmt.Errorf("telegram %d: %w", chatID, err))
		}
	}

	if ns.push == nil {
		logger.Warn("⚠️ OneSignal не настроен, push пропущен",
			"users", len(req.UserIDs), "devices", len(playerIDs))
		return errors.Join(errs...)
	}

	msg := push.Message{
		PlayerIDs:       playerIDs,
		ExternalUserIDs: req.UserIDs,
		Title:           req.Notification.Title,
		Body:            req.Notification.Message,
		Data:            req.Notification.Data,
		URL:             req.Notification.ActionURL,
	}
	if req.Notification.ScheduledFor != nil && !req.Immediate {
		msg.SendAfter = req.Notification.ScheduledFor
	}
	if err := ns.push.Send(ctx, msg); err != nil {
		errs = append(errs, fmt.Errorf("onesignal: %w", err))
	}

	return errors.Join(errs...)
}

// RegisterDevice привязывает токен устройства к пользователю. Токен с тем же
// playerId переносится на нового владельца.
func (ns *NotificationService) RegisterDevice(ctx context.Context, userID string, in RegisterDeviceInput) (*database.DeviceToken, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Platform == PlatformTelegram {
		if _, err := strconv.ParseInt(in.PlayerID, 10, 64); err != nil {
			return nil, invalid("playerId", "для telegram нужен числовой chat id")
		}
	}

	now := ns.now().UTC()
	var device *database.DeviceToken
	err := ns.repository.WithTx(ctx, func(tx *database.Repository) error {
		existing, err := tx.GetDeviceByPlayerID(ctx, in.PlayerID)
		switch {
		case err == nil:
			if err := tx.ReassignDevice(ctx, in.PlayerID, userID, in.Platform, now); err != nil {
				return err
			}
			existing.UserID = userID
			existing.Platform = in.Platform
			existing.LastActive = now
			device = existing
			return nil
		case !errors.Is(err, database.ErrNotFound):
			return err
		}

		created := database.DeviceToken{
			ID:         uuid.NewString(),
			UserID:     userID,
			PlayerID:   in.PlayerID,
			Platform:   in.Platform,
			LastActive: now,
			CreatedAt:  now,
		}
		if err := tx.CreateDevice(ctx, created); err != nil {
			return err
		}
		device = &created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации устройства: %w", err)
	}

	logger.Info("📱 Устройство зарегистрировано", "user", userID, "platform", in.Platform)
	return device, nil
}

// UnregisterDevice удаляет токен, если он принадлежит пользователю.
// Чужой или отсутствующий токен не считается ошибкой.
func (ns *NotificationService) UnregisterDevice(ctx context.Context, userID, playerID string) (string, error) {
	existing, err := ns.repository.GetDeviceByPlayerID(ctx, playerID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && existing.UserID != userID) {
		return "Токен не найден или не принадлежит пользователю", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка получения устройства: %w", err)
	}

	if err := ns.repository.DeleteDevice(ctx, playerID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("ошибка удаления устройства: %w", err)
	}
	return "Токен удалён", nil
}

// ChatOwner возвращает пользователя, к которому привязан telegram-чат
func (ns *NotificationService) ChatOwner(ctx context.Context, chatID int64) (string, error) {
	device, err := ns.repository.GetDeviceByPlayerID(ctx, strconv.FormatInt(chatID, 10))
	if errors.Is(err, database.ErrNotFound) || (err == nil && device.Platform != PlatformTelegram) {
		return "", notFound("Чат не привязан к пользователю")
	}
	if err != nil {
		return "", fmt.Errorf("ошибка получения устройства: %w", err)
	}
	return device.UserID, nil
}
