package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"alfa-forge/internal/utils"
)

const settingsColumns = `user_id, habits_enabled, tasks_enabled, workouts_enabled, health_enabled,
	motivational_enabled, achievements_enabled, quiet_hours_start, quiet_hours_end,
	motivational_frequency, enabled_days, created_at, updated_at`

func (r *Repository) GetNotificationSettings(ctx context.Context, userID string) (*NotificationSettings, error) {
	var s NotificationSettings
	var days, createdAt, updatedAt string

	err := r.queryRow(ctx, `SELECT `+settingsColumns+` FROM notification_settings WHERE user_id = ?`, userID).Scan(
		&s.UserID, &s.HabitsEnabled, &s.TasksEnabled, &s.WorkoutsEnabled, &s.HealthEnabled,
		&s.MotivationalEnabled, &s.AchievementsEnabled, &s.QuietHoursStart, &s.QuietHoursEnd,
		&s.MotivationalFrequency, &days, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(days), &s.EnabledDays); err != nil {
		return nil, fmt.Errorf("failed to parse enabled_days: %w", err)
	}
	if s.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if s.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &s, nil
}

// UpsertNotificationSettings создаёт или полностью перезаписывает настройки
// пользователя; created_at существующей строки сохраняется
func (r *Repository) UpsertNotificationSettings(ctx context.Context, s NotificationSettings) error {
	days, err := json.Marshal(s.EnabledDays)
	if err != nil {
		return err
	}

	_, err = r.exec(ctx, `
		INSERT INTO notification_settings (`+settingsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			habits_enabled = excluded.habits_enabled,
			tasks_enabled = excluded.tasks_enabled,
			workouts_enabled = excluded.workouts_enabled,
			health_enabled = excluded.health_enabled,
			motivational_enabled = excluded.motivational_enabled,
			achievements_enabled = excluded.achievements_enabled,
			quiet_hours_start = excluded.quiet_hours_start,
			quiet_hours_end = excluded.quiet_hours_end,
			motivational_frequency = excluded.motivational_frequency,
			enabled_days = excluded.enabled_days,
			updated_at = excluded.updated_at
	`, s.UserID, s.HabitsEnabled, s.TasksEnabled, s.WorkoutsEnabled, s.HealthEnabled,
		s.MotivationalEnabled, s.AchievementsEnabled, s.QuietHoursStart, s.QuietHoursEnd,
		s.MotivationalFrequency, string(days),
		utils.FormatTimestamp(s.CreatedAt), utils.FormatTimestamp(s.UpdatedAt))
	return err
}
