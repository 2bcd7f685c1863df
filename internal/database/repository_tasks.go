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

const taskColumns = `id, user_id, title, description, priority, status, deadline, reminder_at, habit_id,
	is_recurring, recurring_type, tags, created_at, updated_at`

const taskPriorityOrder = `CASE priority WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END DESC`

func (r *Repository) CreateTask(ctx context.Context, t Task) error {
	_, err := r.exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status),
		utils.FormatTimestamp(t.Deadline), nullTime(t.ReminderAt), nullString(t.HabitID),
		t.IsRecurring, t.RecurringType, encodeTags(t.Tags),
		utils.FormatTimestamp(t.CreatedAt), utils.FormatTimestamp(t.UpdatedAt))
	return err
}

func (r *Repository) GetTask(ctx context.Context, id string) (*Task, error) {
	row := r.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *Repository) UpdateTask(ctx context.Context, t Task) error {
	res, err := r.exec(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, priority = ?, status = ?, deadline = ?, reminder_at = ?,
			habit_id = ?, is_recurring = ?, recurring_type = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, string(t.Priority), string(t.Status),
		utils.FormatTimestamp(t.Deadline), nullTime(t.ReminderAt), nullString(t.HabitID),
		t.IsRecurring, t.RecurringType, encodeTags(t.Tags), utils.FormatTimestamp(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status TaskStatus, updatedAt time.Time) error {
	res, err := r.exec(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), utils.FormatTimestamp(updatedAt), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]Task, error) {
	var where strings.Builder
	where.WriteString("user_id = ?")
	args := []any{userID}

	if filter.Status != "" {
		where.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		where.WriteString(" AND priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.HabitID != "" {
		where.WriteString(" AND habit_id = ?")
		args = append(args, filter.HabitID)
	}
	if filter.Search != "" {
		where.WriteString(" AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}

	return r.listTasks(ctx, fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE %s
		ORDER BY %s, deadline ASC, created_at DESC
	`, taskColumns, where.String(), taskPriorityOrder), args...)
}

// ListTasksInRange возвращает задачи, у которых дедлайн или напоминание
// попадает в [from, to]
func (r *Repository) ListTasksInRange(ctx context.Context, userID string, from, to time.Time) ([]Task, error) {
	f, t := utils.FormatTimestamp(from), utils.FormatTimestamp(to)
	return r.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ?
		AND ((deadline >= ? AND deadline <= ?) OR (reminder_at >= ? AND reminder_at <= ?))
		ORDER BY `+taskPriorityOrder+`, deadline ASC
	`, userID, f, t, f, t)
}

func (r *Repository) ListOverdueTasks(ctx context.Context, userID string, now time.Time) ([]Task, error) {
	return r.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND status != ? AND deadline < ?
		ORDER BY deadline ASC
	`, userID, string(TaskDone), utils.FormatTimestamp(now))
}

func (r *Repository) ListUpcomingReminders(ctx context.Context, userID string, from, to time.Time) ([]Task, error) {
	return r.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND status != ? AND reminder_at >= ? AND reminder_at <= ?
		ORDER BY reminder_at ASC
	`, userID, string(TaskDone), utils.FormatTimestamp(from), utils.FormatTimestamp(to))
}

// GetTasksForReminder возвращает задачи всех пользователей, у которых
// напоминание или дедлайн попадает в [from, to]. Статус не учитывается.
func (r *Repository) GetTasksForReminder(ctx context.Context, from, to time.Time) ([]TaskReminder, error) {
	f, t := utils.FormatTimestamp(from), utils.FormatTimestamp(to)
	rows, err := r.query(ctx, `
		SELECT id, title, user_id, deadline, reminder_at
		FROM tasks
		WHERE (reminder_at >= ? AND reminder_at <= ?) OR (deadline >= ? AND deadline <= ?)
	`, f, t, f, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []TaskReminder
	for rows.Next() {
		var task TaskReminder
		var deadline string
		var reminderAt sql.NullString
		if err := rows.Scan(&task.ID, &task.Title, &task.UserID, &deadline, &reminderAt); err != nil {
			return nil, err
		}
		if task.Deadline, err = utils.ParseTimestamp(deadline); err != nil {
			return nil, fmt.Errorf("failed to parse deadline: %w", err)
		}
		if task.ReminderAt, err = fromNullTime(reminderAt); err != nil {
			return nil, fmt.Errorf("failed to parse reminder_at: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *Repository) listTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s rowScanner) (*Task, error) {
	var t Task
	var priority, status, deadline, tags, createdAt, updatedAt string
	var reminderAt, habitID sql.NullString

	err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &priority, &status, &deadline, &reminderAt,
		&habitID, &t.IsRecurring, &t.RecurringType, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Priority = TaskPriority(priority)
	t.Status = TaskStatus(status)
	t.HabitID = fromNullString(habitID)
	t.Tags = decodeTags(tags)

	if t.Deadline, err = utils.ParseTimestamp(deadline); err != nil {
		return nil, fmt.Errorf("failed to parse deadline: %w", err)
	}
	if t.ReminderAt, err = fromNullTime(reminderAt); err != nil {
		return nil, fmt.Errorf("failed to parse reminder_at: %w", err)
	}
	if t.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if t.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &t, nil
}

// ListTasksCreatedBetween возвращает задачи пользователя, созданные в [from, to]
func (r *Repository) ListTasksCreatedBetween(ctx context.Context, userID string, from, to time.Time) ([]Task, error) {
	return r.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC
	`, userID, utils.FormatTimestamp(from), utils.FormatTimestamp(to))
}

func (r *Repository) ListTasksByHabit(ctx context.Context, userID, habitID string) ([]Task, error) {
	return r.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND habit_id = ?
		ORDER BY deadline ASC, created_at DESC
	`, userID, habitID)
}
