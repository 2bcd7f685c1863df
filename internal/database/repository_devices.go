package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"alfa-forge/internal/utils"
)

const deviceColumns = `id, user_id, player_id, platform, last_active, created_at`

func (r *Repository) GetDeviceByPlayerID(ctx context.Context, playerID string) (*DeviceToken, error) {
	row := r.queryRow(ctx, `SELECT `+deviceColumns+` FROM device_tokens WHERE player_id = ?`, playerID)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *Repository) CreateDevice(ctx context.Context, d DeviceToken) error {
	_, err := r.exec(ctx, `
		INSERT INTO device_tokens (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.UserID, d.PlayerID, d.Platform,
		utils.FormatTimestamp(d.LastActive), utils.FormatTimestamp(d.CreatedAt))
	return err
}

// ReassignDevice переносит токен на пользователя и обновляет last_active
func (r *Repository) ReassignDevice(ctx context.Context, playerID, userID, platform string, lastActive time.Time) error {
	res, err := r.exec(ctx, `
		UPDATE device_tokens SET user_id = ?, platform = ?, last_active = ?
		WHERE player_id = ?
	`, userID, platform, utils.FormatTimestamp(lastActive), playerID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) DeleteDevice(ctx context.Context, playerID string) error {
	res, err := r.exec(ctx, `DELETE FROM device_tokens WHERE player_id = ?`, playerID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) ListDevicesByUsers(ctx context.Context, userIDs []string) ([]DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(userIDs)), ", ")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.query(ctx, fmt.Sprintf(`
		SELECT %s FROM device_tokens
		WHERE user_id IN (%s)
		ORDER BY created_at
	`, deviceColumns, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []DeviceToken
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func scanDevice(s rowScanner) (*DeviceToken, error) {
	var d DeviceToken
	var lastActive, createdAt string
	if err := s.Scan(&d.ID, &d.UserID, &d.PlayerID, &d.Platform, &lastActive, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if d.LastActive, err = utils.ParseTimestamp(lastActive); err != nil {
		return nil, fmt.Errorf("failed to parse last_active: %w", err)
	}
	if d.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &d, nil
}
