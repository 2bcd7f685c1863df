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

const (
	listCompletionsDays = 30
	habitCompletionsMax = 100
)

type HabitService struct {
	repository *database.Repository
	now        func() time.Time
}

func NewHabitService(repo *database.Repository) *HabitService {
	return &HabitService{
		repository: repo,
		now:        time.Now,
	}
}

type CreateHabitInput struct {
	Name            string                 `json:"name" validate:"required,max=100"`
	Description     string                 `json:"description" validate:"max=500"`
	Motivation      string                 `json:"motivation" validate:"max=500"`
	IconName        string                 `json:"iconName" validate:"required"`
	ColorHex        string                 `json:"colorHex" validate:"required,len=7,hexcolor"`
	CategoryID      string                 `json:"categoryId"`
	TemplateID      string                 `json:"templateId"`
	FrequencyType   database.FrequencyType `json:"frequencyType" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY CUSTOM"`
	TimesPerWeek    *int                   `json:"timesPerWeek" validate:"omitempty,min=1,max=7"`
	TimesPerMonth   *int                   `json:"timesPerMonth" validate:"omitempty,min=1,max=31"`
	ReminderTime    *string                `json:"reminderTime" validate:"omitempty,hhmm"`
	Duration        *int                   `json:"duration" validate:"omitempty,min=1"`
	Difficulty      database.Difficulty    `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	EnableReminders *bool                  `json:"enableReminders"`
	Tags            []string               `json:"tags" validate:"omitempty,dive,max=50"`
}

// UpdateHabitInput — частичное обновление: nil означает «не менять»
type UpdateHabitInput struct {
	Name            *string                 `json:"name" validate:"omitempty,min=1,max=100"`
	Description     *string                 `json:"description" validate:"omitempty,max=500"`
	Motivation      *string                 `json:"motivation" validate:"omitempty,max=500"`
	IconName        *string                 `json:"iconName" validate:"omitempty,min=1"`
	ColorHex        *string                 `json:"colorHex" validate:"omitempty,len=7,hexcolor"`
	CategoryID      *string                 `json:"categoryId"`
	FrequencyType   *database.FrequencyType `json:"frequencyType" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY CUSTOM"`
	TimesPerWeek    *int                    `json:"timesPerWeek" validate:"omitempty,min=1,max=7"`
	TimesPerMonth   *int                    `json:"timesPerMonth" validate:"omitempty,min=1,max=31"`
	ReminderTime    *string                 `json:"reminderTime" validate:"omitempty,hhmm"`
	Duration        *int                    `json:"duration" validate:"omitempty,min=1"`
	Difficulty      *database.Difficulty    `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	EnableReminders *bool                   `json:"enableReminders"`
	IsActive        *bool                   `json:"isActive"`
	Tags            []string                `json:"tags" validate:"omitempty,dive,max=50"`
}

type CompleteHabitInput struct {
	Date     string  `json:"date" validate:"required,ymd"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
	Duration *int    `json:"duration" validate:"omitempty,min=1"`
	Quality  *int    `json:"quality" validate:"omitempty,min=1,max=5"`
	Mood     *int    `json:"mood" validate:"omitempty,min=1,max=5"`
}

func (hs *HabitService) List(ctx context.Context, userID string) ([]database.Habit, error) {
	habits, err := hs.repository.ListHabitsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привычек: %w", err)
	}

	since := utils.FormatDate(utils.CalendarDay(hs.now()).AddDate(0, 0, -listCompletionsDays))
	for i := range habits {
		completions, err := hs.repository.ListCompletionsSince(ctx, habits[i].ID, since)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения выполнений: %w", err)
		}
		habits[i].Completions = completions
	}
	return habits, nil
}

func (hs *HabitService) Get(ctx context.Context, habitID, userID string) (*database.Habit, error) {
	habit, err := hs.owned(ctx, hs.repository, habitID, userID)
	if err != nil {
		return nil, err
	}

	habit.Completions, err = hs.repository.ListCompletions(ctx, habit.ID, habitCompletionsMax)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения выполнений: %w", err)
	}
	return habit, nil
}

func (hs *HabitService) Create(ctx context.Context, userID string, in CreateHabitInput) (*database.Habit, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := hs.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := hs.checkTemplate(ctx, in.TemplateID); err != nil {
		return nil, err
	}

	now := hs.now().UTC()
	habit := database.Habit{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            in.Name,
		Description:     in.Description,
		Motivation:      in.Motivation,
		IconName:        in.IconName,
		ColorHex:        in.ColorHex,
		CategoryID:      in.CategoryID,
		TemplateID:      in.TemplateID,
		FrequencyType:   in.FrequencyType,
		TimesPerWeek:    in.TimesPerWeek,
		TimesPerMonth:   in.TimesPerMonth,
		ReminderTime:    in.ReminderTime,
		Duration:        in.Duration,
		Difficulty:      in.Difficulty,
		EnableReminders: true,
		IsActive:        true,
		Tags:            in.Tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if habit.FrequencyType == "" {
		habit.FrequencyType = database.FrequencyDaily
	}
	if habit.Difficulty == "" {
		habit.Difficulty = database.DifficultyMedium
	}
	if in.EnableReminders != nil {
		habit.EnableReminders = *in.EnableReminders
	}
	if habit.Tags == nil {
		habit.Tags = []string{}
	}

	if err := hs.repository.CreateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("ошибка создания привычки: %w", err)
	}

	logger.Info("🆕 Привычка создана", "habit", habit.ID, "user", userID)
	return &habit, nil
}

func (hs *HabitService) Update(ctx context.Context, habitID, userID string, in UpdateHabitInput) (*database.Habit, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	habit, err := hs.owned(ctx, hs.repository, habitID, userID)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := hs.checkCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	setIf(&habit.Name, in.Name)
	setIf(&habit.Description, in.Description)
	setIf(&habit.Motivation, in.Motivation)
	setIf(&habit.IconName, in.IconName)
	setIf(&habit.ColorHex, in.ColorHex)
	setIf(&habit.CategoryID, in.CategoryID)
	setIf(&habit.FrequencyType, in.FrequencyType)
	setIf(&habit.Difficulty, in.Difficulty)
	setIf(&habit.EnableReminders, in.EnableReminders)
	setIf(&habit.IsActive, in.IsActive)
	if in.TimesPerWeek != nil {
		habit.TimesPerWeek = in.TimesPerWeek
	}
	if in.TimesPerMonth != nil {
		habit.TimesPerMonth = in.TimesPerMonth
	}
	if in.ReminderTime != nil {
		habit.ReminderTime = in.ReminderTime
	}
	if in.Duration != nil {
		habit.Duration = in.Duration
	}
	if in.Tags != nil {
		habit.Tags = in.Tags
	}
	habit.UpdatedAt = hs.now().UTC()

	if err := hs.repository.UpdateHabit(ctx, *habit); err != nil {
		return nil, fmt.Errorf("ошибка обновления привычки: %w", err)
	}
	return habit, nil
}

func (hs *HabitService) Categories(ctx context.Context) ([]database.HabitCategory, error) {
	categories, err := hs.repository.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения категорий: %w", err)
	}
	return categories, nil
}

func (hs *HabitService) Templates(ctx context.Context, categoryID string) ([]database.HabitTemplate, error) {
	templates, err := hs.repository.ListTemplates(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения шаблонов: %w", err)
	}
	return templates, nil
}

// checkCategory пропускает пустой id; непустой должен существовать
func (hs *HabitService) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := hs.repository.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Категория не найдена")
		}
		return fmt.Errorf("ошибка получения категории: %w", err)
	}
	return nil
}

func (hs *HabitService) checkTemplate(ctx context.Context, templateID string) error {
	if templateID == "" {
		return nil
	}
	if _, err := hs.repository.GetTemplate(ctx, templateID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Шаблон не найден")
		}
		return fmt.Errorf("ошибка получения шаблона: %w", err)
	}
	return nil
}

func (hs *HabitService) Delete(ctx context.Context, habitID, userID string) error {
	return hs.repository.WithTx(ctx, func(tx *database.Repository) error {
		if _, err := hs.owned(ctx, tx, habitID, userID); err != nil {
			return err
		}
		if err := tx.DeleteHabit(ctx, habitID); err != nil {
			return fmt.Errorf("ошибка удаления привычки: %w", err)
		}
		logger.Info("🗑 Привычка удалена", "habit", habitID, "user", userID)
		return nil
	})
}

// Complete отмечает выполнение привычки за календарный день. Повторная отметка
// того же дня обновляет метаданные и не пересчитывает стрик.
func (hs *HabitService) Complete(ctx context.Context, habitID, userID string, in CompleteHabitInput) (*database.HabitCompletion, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	day, err := utils.ParseDay(in.Date)
	if err != nil {
		return nil, invalid("date", err.Error())
	}
	date := utils.FormatDate(day)

	var completion *database.HabitCompletion
	err = hs.repository.WithTx(ctx, func(tx *database.Repository) error {
		if _, err := hs.owned(ctx, tx, habitID, userID); err != nil {
			return err
		}

		existing, err := tx.GetCompletion(ctx, habitID, date)
		switch {
		case err == nil:
			// поля, не переданные в запросе, сохраняют прежние значения
			if in.Notes != nil {
				existing.Notes = in.Notes
			}
			if in.Duration != nil {
				existing.Duration = in.Duration
			}
			if in.Quality != nil {
				existing.Quality = in.Quality
			}
			if in.Mood != nil {
				existing.Mood = in.Mood
			}
			existing.Completed = true
			if err := tx.UpdateCompletion(ctx, *existing); err != nil {
				return fmt.Errorf("ошибка обновления выполнения: %w", err)
			}
			completion = existing
			return nil
		case !errors.Is(err, database.ErrNotFound):
			return fmt.Errorf("ошибка чтения выполнения: %w", err)
		}

		created := database.HabitCompletion{
			ID:        uuid.NewString(),
			HabitID:   habitID,
			UserID:    userID,
			Date:      date,
			Completed: true,
			Notes:     in.Notes,
			Duration:  in.Duration,
			Quality:   in.Quality,
			Mood:      in.Mood,
			CreatedAt: hs.now().UTC(),
		}
		if err := tx.CreateCompletion(ctx, created); err != nil {
			return fmt.Errorf("ошибка сохранения выполнения: %w", err)
		}
		completion = &created

		_, err = hs.recompute(ctx, tx, habitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Привычка выполнена", "habit", habitID, "date", date)
	return completion, nil
}

// Uncomplete снимает отметку за день (если она была) и всегда пересчитывает стрик
func (hs *HabitService) Uncomplete(ctx context.Context, habitID, userID, date string) error {
	day, err := utils.ParseDay(date)
	if err != nil {
		return invalid("date", err.Error())
	}
	date = utils.FormatDate(day)

	return hs.repository.WithTx(ctx, func(tx *database.Repository) error {
		if _, err := hs.owned(ctx, tx, habitID, userID); err != nil {
			return err
		}
		if _, err := tx.DeleteCompletion(ctx, habitID, date); err != nil {
			return fmt.Errorf("ошибка удаления выполнения: %w", err)
		}
		_, err := hs.recompute(ctx, tx, habitID)
		return err
	})
}

// Recompute пересчитывает производные поля одной привычки вне запроса пользователя
func (hs *HabitService) Recompute(ctx context.Context, habitID string) (database.StreakFields, error) {
	var fields database.StreakFields
	err := hs.repository.WithTx(ctx, func(tx *database.Repository) error {
		if _, err := tx.GetHabit(ctx, habitID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFound("Привычка не найдена")
			}
			return err
		}
		var err error
		fields, err = hs.recompute(ctx, tx, habitID)
		return err
	})
	return fields, err
}

// RecomputeAll пересчитывает все привычки и возвращает число обработанных
func (hs *HabitService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := hs.repository.ListHabitIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения привычек: %w", err)
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := hs.Recompute(ctx, id); err != nil {
			return i, fmt.Errorf("привычка %s: %w", id, err)
		}
	}
	return len(ids), nil
}

func (hs *HabitService) recompute(ctx context.Context, tx *database.Repository, habitID string) (database.StreakFields, error) {
	raw, err := tx.GetRecentCompletionDates(ctx, habitID, streakHistoryLimit)
	if err != nil {
		return database.StreakFields{}, fmt.Errorf("ошибка чтения истории выполнений: %w", err)
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := utils.ParseDate(s)
		if err != nil {
			return database.StreakFields{}, fmt.Errorf("повреждённая дата выполнения: %w", err)
		}
		dates = append(dates, d)
	}

	now := hs.now()
	fields := RecomputeStreak(dates, utils.CalendarDay(now))
	if err := tx.UpdateHabitStreak(ctx, habitID, fields, now.UTC()); err != nil {
		return database.StreakFields{}, fmt.Errorf("ошибка сохранения стрика: %w", err)
	}

	streakRecomputes.Inc()
	logger.Debug("🔥 Стрик пересчитан", "habit", habitID,
		"current", fields.CurrentStreak, "max", fields.MaxStreak, "strength", fields.Strength)
	return fields, nil
}

// owned загружает привычку через q и проверяет владельца
func (hs *HabitService) owned(ctx context.Context, q *database.Repository, habitID, userID string) (*database.Habit, error) {
	habit, err := q.GetHabit(ctx, habitID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Привычка не найдена")
		}
		return nil, fmt.Errorf("ошибка получения привычки: %w", err)
	}
	if habit.UserID != userID {
		return nil, forbidden("Нет доступа к этой привычке")
	}
	return habit, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
