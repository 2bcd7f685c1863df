package services

import (
	"context"
	"errors"
	"fmt"

	"alfa-forge/internal/database"
)

const (
	defaultQuietHoursStart       = "22:00"
	defaultQuietHoursEnd         = "08:00"
	defaultMotivationalFrequency = 24
)

var allWeekDays = []int{1, 2, 3, 4, 5, 6, 0}

// NotificationSettingsInput перезаписывает настройки целиком:
// непереданные переключатели включаются, остальное получает значения по умолчанию
type NotificationSettingsInput struct {
	HabitsEnabled         *bool  `json:"habitsEnabled"`
	TasksEnabled          *bool  `json:"tasksEnabled"`
	WorkoutsEnabled       *bool  `json:"workoutsEnabled"`
	HealthEnabled         *bool  `json:"healthEnabled"`
	MotivationalEnabled   *bool  `json:"motivationalEnabled"`
	AchievementsEnabled   *bool  `json:"achievementsEnabled"`
	QuietHoursStart       string `json:"quietHoursStart" validate:"omitempty,hhmm"`
	QuietHoursEnd         string `json:"quietHoursEnd" validate:"omitempty,hhmm"`
	MotivationalFrequency int    `json:"motivationalFrequency" validate:"omitempty,min=1,max=168"`
	EnabledDays           []int  `json:"enabledDays" validate:"omitempty,dive,min=0,max=6"`
}

// GetSettings возвращает настройки пользователя, создавая значения по умолчанию при первом обращении
func (ns *NotificationService) GetSettings(ctx context.Context, userID string) (*database.NotificationSettings, error) {
	settings, err := ns.repository.GetNotificationSettings(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("ошибка получения настроек уведомлений: %w", err)
	}
	return ns.UpdateSettings(ctx, userID, NotificationSettingsInput{})
}

func (ns *NotificationService) UpdateSettings(ctx context.Context, userID string, in NotificationSettingsInput) (*database.NotificationSettings, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := ns.now().UTC()
	settings := database.NotificationSettings{
		UserID:                userID,
		HabitsEnabled:         enabled(in.HabitsEnabled),
		TasksEnabled:          enabled(in.TasksEnabled),
		WorkoutsEnabled:       enabled(in.WorkoutsEnabled),
		HealthEnabled:         enabled(in.HealthEnabled),
		MotivationalEnabled:   enabled(in.MotivationalEnabled),
		AchievementsEnabled:   enabled(in.AchievementsEnabled),
		QuietHoursStart:       orDefault(in.QuietHoursStart, defaultQuietHoursStart),
		QuietHoursEnd:         orDefault(in.QuietHoursEnd, defaultQuietHoursEnd),
		MotivationalFrequency: orDefault(in.MotivationalFrequency, defaultMotivationalFrequency),
		EnabledDays:           in.EnabledDays,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if len(settings.EnabledDays) == 0 {
		settings.EnabledDays = append([]int(nil), allWeekDays...)
	}

	if err := ns.repository.UpsertNotificationSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("ошибка сохранения настроек уведомлений: %w", err)
	}

	// created_at существующей строки не перезаписывается
	stored, err := ns.repository.GetNotificationSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения настроек уведомлений: %w", err)
	}
	return stored, nil
}

func enabled(v *bool) bool {
	return v == nil || *v
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
