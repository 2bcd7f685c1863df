package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alfa-forge/internal/utils"
)

// ErrNotFound возвращается, когда запись с указанным ключом отсутствует
var ErrNotFound = errors.New("запись не найдена")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Repository struct {
	Db *Database
	q  querier
}

func NewRepository(db *Database) *Repository {
	return &Repository{Db: db, q: db.db}
}

// WithTx выполняет fn в одной транзакции. Внутри fn нужно использовать только
// переданный tx-репозиторий.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := r.Db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	if err := fn(&Repository{Db: r.Db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("ошибка отката транзакции: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.Db.Rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.Db.Rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.Db.Rebind(query), args...)
}

// Habit repository methods

const habitColumns = `id, user_id, name, description, motivation, icon_name, color_hex, category_id, template_id,
	frequency_type, times_per_week, times_per_month, reminder_time, duration, difficulty,
	enable_reminders, is_active, tags, current_streak, max_streak, strength, created_at, updated_at`

func (r *Repository) CreateHabit(ctx context.Context, h Habit) error {
	_, err := r.exec(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.UserID, h.Name, h.Description, h.Motivation, h.IconName, h.ColorHex, h.CategoryID, h.TemplateID,
		string(h.FrequencyType), nullInt(h.TimesPerWeek), nullInt(h.TimesPerMonth), nullString(h.ReminderTime),
		nullInt(h.Duration), string(h.Difficulty), h.EnableReminders, h.IsActive, encodeTags(h.Tags),
		h.CurrentStreak, h.MaxStreak, h.Strength,
		utils.FormatTimestamp(h.CreatedAt), utils.FormatTimestamp(h.UpdatedAt))
	return err
}

func (r *Repository) GetHabit(ctx context.Context, id string) (*Habit, error) {
	row := r.queryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *Repository) ListHabitsByUser(ctx context.Context, userID string) ([]Habit, error) {
	rows, err := r.query(ctx, `
		SELECT `+habitColumns+`
		FROM habits
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := make([]Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// UpdateHabit обновляет настраиваемые поля; производные поля стрика не трогает
func (r *Repository) UpdateHabit(ctx context.Context, h Habit) error {
	res, err := r.exec(ctx, `
		UPDATE habits SET
			name = ?, description = ?, motivation = ?, icon_name = ?, color_hex = ?, category_id = ?,
			frequency_type = ?, times_per_week = ?, times_per_month = ?, reminder_time = ?, duration = ?,
			difficulty = ?, enable_reminders = ?, is_active = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, h.Name, h.Description, h.Motivation, h.IconName, h.ColorHex, h.CategoryID,
		string(h.FrequencyType), nullInt(h.TimesPerWeek), nullInt(h.TimesPerMonth), nullString(h.ReminderTime),
		nullInt(h.Duration), string(h.Difficulty), h.EnableReminders, h.IsActive, encodeTags(h.Tags),
		utils.FormatTimestamp(h.UpdatedAt), h.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteHabit удаляет привычку вместе с её выполнениями
func (r *Repository) DeleteHabit(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `DELETE FROM habit_completions WHERE habit_id = ?`, id); err != nil {
		return err
	}
	res, err := r.exec(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) UpdateHabitStreak(ctx context.Context, id string, s StreakFields, updatedAt time.Time) error {
	res, err := r.exec(ctx, `
		UPDATE habits
		SET current_streak = ?, max_streak = ?, strength = ?, updated_at = ?
		WHERE id = ?
	`, s.CurrentStreak, s.MaxStreak, s.Strength, utils.FormatTimestamp(updatedAt), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) ListHabitIDs(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, `SELECT id FROM habits ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetHabitsForReminder возвращает активные привычки с включёнными
// напоминаниями, у которых время напоминания в точности равно clock (HH:MM)
func (r *Repository) GetHabitsForReminder(ctx context.Context, clock string) ([]HabitReminder, error) {
	rows, err := r.query(ctx, `
		SELECT id, name, user_id
		FROM habits
		WHERE is_active = ? AND enable_reminders = ? AND reminder_time = ?
	`, true, true, clock)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []HabitReminder
	for rows.Next() {
		var h HabitReminder
		if err := rows.Scan(&h.ID, &h.Name, &h.UserID); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// Completion repository methods

const completionColumns = `id, habit_id, user_id, date, completed, notes, duration, quality, mood, created_at`

func (r *Repository) GetCompletion(ctx context.Context, habitID, date string) (*HabitCompletion, error) {
	row := r.queryRow(ctx, `
		SELECT `+completionColumns+`
		FROM habit_completions
		WHERE habit_id = ? AND date = ?
	`, habitID, date)
	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) CreateCompletion(ctx context.Context, c HabitCompletion) error {
	_, err := r.exec(ctx, `
		INSERT INTO habit_completions (`+completionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.HabitID, c.UserID, c.Date, c.Completed, nullString(c.Notes), nullInt(c.Duration),
		nullInt(c.Quality), nullInt(c.Mood), utils.FormatTimestamp(c.CreatedAt))
	return err
}

// UpdateCompletion перезаписывает метаданные выполнения и флаг completed
func (r *Repository) UpdateCompletion(ctx context.Context, c HabitCompletion) error {
	res, err := r.exec(ctx, `
		UPDATE habit_completions
		SET notes = ?, duration = ?, quality = ?, mood = ?, completed = ?
		WHERE habit_id = ? AND date = ?
	`, nullString(c.Notes), nullInt(c.Duration), nullInt(c.Quality), nullInt(c.Mood), c.Completed,
		c.HabitID, c.Date)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteCompletion удаляет выполнение за день и возвращает число удалённых строк
func (r *Repository) DeleteCompletion(ctx context.Context, habitID, date string) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM habit_completions WHERE habit_id = ? AND date = ?`, habitID, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetRecentCompletionDates возвращает до limit дат выполнения, от новых к старым
func (r *Repository) GetRecentCompletionDates(ctx context.Context, habitID string, limit int) ([]string, error) {
	rows, err := r.query(ctx, `
		SELECT date FROM habit_completions
		WHERE habit_id = ?
		ORDER BY date DESC
		LIMIT ?
	`, habitID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *Repository) ListCompletions(ctx context.Context, habitID string, limit int) ([]HabitCompletion, error) {
	return r.listCompletions(ctx, `
		SELECT `+completionColumns+`
		FROM habit_completions
		WHERE habit_id = ?
		ORDER BY date DESC
		LIMIT ?
	`, habitID, limit)
}

func (r *Repository) ListCompletionsSince(ctx context.Context, habitID, since string) ([]HabitCompletion, error) {
	return r.listCompletions(ctx, `
		SELECT `+completionColumns+`
		FROM habit_completions
		WHERE habit_id = ? AND date >= ?
		ORDER BY date DESC
	`, habitID, since)
}

// ListCompletionsBetween возвращает выполнения в [start, end] по возрастанию даты
func (r *Repository) ListCompletionsBetween(ctx context.Context, habitID, start, end string) ([]HabitCompletion, error) {
	return r.listCompletions(ctx, `
		SELECT `+completionColumns+`
		FROM habit_completions
		WHERE habit_id = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC
	`, habitID, start, end)
}

func (r *Repository) listCompletions(ctx context.Context, query string, args ...any) ([]HabitCompletion, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := make([]HabitCompletion, 0)
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func scanHabit(s rowScanner) (*Habit, error) {
	var h Habit
	var frequency, difficulty, tags, createdAt, updatedAt string
	var timesPerWeek, timesPerMonth, duration sql.NullInt64
	var reminderTime sql.NullString

	err := s.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.Motivation, &h.IconName, &h.ColorHex, &h.CategoryID, &h.TemplateID,
		&frequency, &timesPerWeek, &timesPerMonth, &reminderTime, &duration, &difficulty,
		&h.EnableReminders, &h.IsActive, &tags, &h.CurrentStreak, &h.MaxStreak, &h.Strength,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.FrequencyType = FrequencyType(frequency)
	h.Difficulty = Difficulty(difficulty)
	h.TimesPerWeek = fromNullInt(timesPerWeek)
	h.TimesPerMonth = fromNullInt(timesPerMonth)
	h.Duration = fromNullInt(duration)
	h.ReminderTime = fromNullString(reminderTime)
	h.Tags = decodeTags(tags)

	if h.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &h, nil
}

func scanCompletion(s rowScanner) (*HabitCompletion, error) {
	var c HabitCompletion
	var notes sql.NullString
	var duration, quality, mood sql.NullInt64
	var createdAt string

	err := s.Scan(&c.ID, &c.HabitID, &c.UserID, &c.Date, &c.Completed, &notes, &duration, &quality, &mood, &createdAt)
	if err != nil {
		return nil, err
	}

	c.Notes = fromNullString(notes)
	c.Duration = fromNullInt(duration)
	c.Quality = fromNullInt(quality)
	c.Mood = fromNullInt(mood)
	if c.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &c, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return utils.FormatTimestamp(*v)
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func fromNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := utils.ParseTimestamp(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeTags(raw string) []string {
	tags := make([]string, 0)
	if raw == "" {
		return tags
	}
	_ = json.Unmarshal([]byte(raw), &tags)
	return tags
}
