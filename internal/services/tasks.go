package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alfa-forge/internal/database"
	"alfa-forge/internal/logger"
	"alfa-forge/internal/utils"
)

const upcomingReminderWindow = time.Hour

type TaskService struct {
	repository *database.Repository
	now        func() time.Time
}

func NewTaskService(repo *database.Repository) *TaskService {
	return &TaskService{
		repository: repo,
		now:        time.Now,
	}
}

type CreateTaskInput struct {
	Title         string                `json:"title" validate:"required,max=200"`
	Description   string                `json:"description" validate:"max=2000"`
	Priority      database.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Deadline      string                `json:"deadline" validate:"required,rfc3339"`
	ReminderAt    *string               `json:"reminderAt" validate:"omitempty,rfc3339"`
	HabitID       *string               `json:"habitId"`
	IsRecurring   bool                  `json:"isRecurring"`
	RecurringType string                `json:"recurringType" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	Tags          []string              `json:"tags" validate:"omitempty,dive,max=50"`
}

type UpdateTaskInput struct {
	Title         *string                `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string                `json:"description" validate:"omitempty,max=2000"`
	Priority      *database.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status        *database.TaskStatus   `json:"status" validate:"omitempty,oneof=ASSIGNED IN_PROGRESS DONE"`
	Deadline      *string                `json:"deadline" validate:"omitempty,rfc3339"`
	ReminderAt    *string                `json:"reminderAt" validate:"omitempty,rfc3339"`
	HabitID       *string                `json:"habitId"`
	IsRecurring   *bool                  `json:"isRecurring"`
	RecurringType *string                `json:"recurringType" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	Tags          []string               `json:"tags" validate:"omitempty,dive,max=50"`
}

type TaskFilterInput struct {
	Status   database.TaskStatus   `form:"status" json:"status" validate:"omitempty,oneof=ASSIGNED IN_PROGRESS DONE"`
	Priority database.TaskPriority `form:"priority" json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Search   string                `form:"search" json:"search" validate:"max=200"`
	HabitID  string                `form:"habitId" json:"habitId"`
}

type TaskStats struct {
	Period struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"period"`
	Summary struct {
		TotalTasks      int     `json:"totalTasks"`
		CompletedTasks  int     `json:"completedTasks"`
		AssignedTasks   int     `json:"assignedTasks"`
		InProgressTasks int     `json:"inProgressTasks"`
		OverdueTasks    int     `json:"overdueTasks"`
		CompletionRate  float64 `json:"completionRate"`
	} `json:"summary"`
	Distribution struct {
		ByPriority        map[database.TaskPriority]int `json:"byPriority"`
		RecurringTasks    int                           `json:"recurringTasks"`
		HabitRelatedTasks int                           `json:"habitRelatedTasks"`
	} `json:"distribution"`
}

func (ts *TaskService) List(ctx context.Context, userID string, in TaskFilterInput) ([]database.Task, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	tasks, err := ts.repository.ListTasks(ctx, userID, database.TaskFilter{
		Status:   in.Status,
		Priority: in.Priority,
		Search:   in.Search,
		HabitID:  in.HabitID,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач: %w", err)
	}
	return tasks, nil
}

func (ts *TaskService) Get(ctx context.Context, taskID, userID string) (*database.Task, error) {
	return ts.owned(ctx, taskID, userID)
}

func (ts *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*database.Task, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := ts.now().UTC()
	task := database.Task{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         in.Title,
		Description:   in.Description,
		Priority:      in.Priority,
		Status:        database.TaskAssigned,
		HabitID:       in.HabitID,
		IsRecurring:   in.IsRecurring,
		RecurringType: in.RecurringType,
		Tags:          in.Tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if task.Priority == "" {
		task.Priority = database.PriorityMedium
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	deadline, err := parseTimestamp("deadline", in.Deadline)
	if err != nil {
		return nil, err
	}
	task.Deadline = deadline
	if in.ReminderAt != nil && *in.ReminderAt != "" {
		at, err := parseTimestamp("reminderAt", *in.ReminderAt)
		if err != nil {
			return nil, err
		}
		task.ReminderAt = &at
	}

	if err := ts.repository.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("ошибка создания задачи: %w", err)
	}

	logger.Info("📝 Задача создана", "task", task.ID, "user", userID)
	return &task, nil
}

func (ts *TaskService) Update(ctx context.Context, taskID, userID string, in UpdateTaskInput) (*database.Task, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	task, err := ts.owned(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	setIf(&task.Title, in.Title)
	setIf(&task.Description, in.Description)
	setIf(&task.Priority, in.Priority)
	setIf(&task.Status, in.Status)
	setIf(&task.IsRecurring, in.IsRecurring)
	setIf(&task.RecurringType, in.RecurringType)
	if in.Deadline != nil {
		if task.Deadline, err = parseTimestamp("deadline", *in.Deadline); err != nil {
			return nil, err
		}
	}
	switch {
	case in.ReminderAt == nil:
	case *in.ReminderAt == "":
		task.ReminderAt = nil
	default:
		at, err := parseTimestamp("reminderAt", *in.ReminderAt)
		if err != nil {
			return nil, err
		}
		task.ReminderAt = &at
	}
	if in.HabitID != nil {
		task.HabitID = in.HabitID
	}
	if in.Tags != nil {
		task.Tags = in.Tags
	}
	task.UpdatedAt = ts.now().UTC()

	if err := ts.repository.UpdateTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("ошибка обновления задачи: %w", err)
	}
	return task, nil
}

// ByHabit возвращает задачи пользователя, привязанные к привычке
func (ts *TaskService) ByHabit(ctx context.Context, userID, habitID string) ([]database.Task, error) {
	tasks, err := ts.repository.ListTasksByHabit(ctx, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач привычки: %w", err)
	}
	return tasks, nil
}

func (ts *TaskService) Delete(ctx context.Context, taskID, userID string) error {
	if _, err := ts.owned(ctx, taskID, userID); err != nil {
		return err
	}
	if err := ts.repository.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("ошибка удаления задачи: %w", err)
	}
	return nil
}

func (ts *TaskService) Complete(ctx context.Context, taskID, userID string) (*database.Task, error) {
	return ts.setStatus(ctx, taskID, userID, database.TaskDone)
}

func (ts *TaskService) Uncomplete(ctx context.Context, taskID, userID string) (*database.Task, error) {
	return ts.setStatus(ctx, taskID, userID, database.TaskAssigned)
}

func (ts *TaskService) setStatus(ctx context.Context, taskID, userID string, status database.TaskStatus) (*database.Task, error) {
	task, err := ts.owned(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	task.Status = status
	task.UpdatedAt = ts.now().UTC()
	if err := ts.repository.UpdateTaskStatus(ctx, taskID, status, task.UpdatedAt); err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса задачи: %w", err)
	}
	return task, nil
}

// Today возвращает задачи, у которых дедлайн или напоминание приходится на
// текущие сутки по часам сервера
func (ts *TaskService) Today(ctx context.Context, userID string) ([]database.Task, error) {
	now := ts.now()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Second)

	tasks, err := ts.repository.ListTasksInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач на сегодня: %w", err)
	}
	return tasks, nil
}

func (ts *TaskService) Overdue(ctx context.Context, userID string) ([]database.Task, error) {
	tasks, err := ts.repository.ListOverdueTasks(ctx, userID, ts.now())
	if err != nil {
		return nil, fmt.Errorf("ошибка получения просроченных задач: %w", err)
	}
	return tasks, nil
}

func (ts *TaskService) UpcomingReminders(ctx context.Context, userID string) ([]database.Task, error) {
	now := ts.now()
	tasks, err := ts.repository.ListUpcomingReminders(ctx, userID, now, now.Add(upcomingReminderWindow))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения напоминаний: %w", err)
	}
	return tasks, nil
}

// Stats считает сводку по задачам, созданным в [startDate, endDate]
func (ts *TaskService) Stats(ctx context.Context, userID, startDate, endDate string) (*TaskStats, error) {
	start, end, err := StatsPeriod{StartDate: startDate, EndDate: endDate}.bounds()
	if err != nil {
		return nil, err
	}

	tasks, err := ts.repository.ListTasksCreatedBetween(ctx, userID, start, end.Add(utils.Day-time.Second))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач: %w", err)
	}

	stats := &TaskStats{}
	stats.Period.StartDate = startDate
	stats.Period.EndDate = endDate
	stats.Distribution.ByPriority = make(map[database.TaskPriority]int)

	now := ts.now()
	for _, t := range tasks {
		switch t.Status {
		case database.TaskDone:
			stats.Summary.CompletedTasks++
		case database.TaskAssigned:
			stats.Summary.AssignedTasks++
		case database.TaskInProgress:
			stats.Summary.InProgressTasks++
		}
		if t.Status != database.TaskDone && t.Deadline.Before(now) {
			stats.Summary.OverdueTasks++
		}
		stats.Distribution.ByPriority[t.Priority]++
		if t.IsRecurring {
			stats.Distribution.RecurringTasks++
		}
		if t.HabitID != nil {
			stats.Distribution.HabitRelatedTasks++
		}
	}

	stats.Summary.TotalTasks = len(tasks)
	if len(tasks) > 0 {
		stats.Summary.CompletionRate = round2(float64(stats.Summary.CompletedTasks) / float64(len(tasks)) * 100)
	}
	return stats, nil
}

func (ts *TaskService) owned(ctx context.Context, taskID, userID string) (*database.Task, error) {
	task, err := ts.repository.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Задача не найдена")
		}
		return nil, fmt.Errorf("ошибка получения задачи: %w", err)
	}
	if task.UserID != userID {
		return nil, forbidden("Нет доступа к этой задаче")
	}
	return task, nil
}
