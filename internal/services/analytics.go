package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"alfa-forge/internal/database"
	"alfa-forge/internal/utils"
)

type AnalyticsService struct {
	habits     *HabitService
	repository *database.Repository
}

func NewAnalyticsService(repo *database.Repository, habits *HabitService) *AnalyticsService {
	return &AnalyticsService{
		habits:     habits,
		repository: repo,
	}
}

type StatsPeriod struct {
	StartDate     string `json:"startDate" form:"startDate" validate:"required,ymd"`
	EndDate       string `json:"endDate" form:"endDate" validate:"required,ymd"`
	TotalDays     int    `json:"totalDays"`
	CompletedDays int    `json:"completedDays"`
}

// bounds проверяет период и возвращает его границы (полночь UTC)
func (p StatsPeriod) bounds() (start, end time.Time, err error) {
	if err = validateStruct(p); err != nil {
		return
	}
	if start, err = utils.ParseDay(p.StartDate); err != nil {
		return start, end, invalid("startDate", "дата должна быть в формате YYYY-MM-DD")
	}
	if end, err = utils.ParseDay(p.EndDate); err != nil {
		return start, end, invalid("endDate", "дата должна быть в формате YYYY-MM-DD")
	}
	if end.Before(start) {
		return start, end, invalid("endDate", "конец периода раньше начала")
	}
	return start, end, nil
}

type HabitSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	database.StreakFields
}

type HabitStats struct {
	Habit  HabitSummary `json:"habit"`
	Period StatsPeriod  `json:"period"`
	Stats  struct {
		CompletionRate float64 `json:"completionRate"`
		AverageQuality float64 `json:"averageQuality"`
		AverageMood    float64 `json:"averageMood"`
	} `json:"stats"`
	Insights    string                     `json:"insights"`
	Completions []database.HabitCompletion `json:"completions"`
}

// GetHabitStats считает статистику привычки за период [startDate, endDate]
func (as *AnalyticsService) GetHabitStats(ctx context.Context, habitID, userID, startDate, endDate string) (*HabitStats, error) {
	period := StatsPeriod{StartDate: startDate, EndDate: endDate}
	start, end, err := period.bounds()
	if err != nil {
		return nil, err
	}

	habit, err := as.habits.owned(ctx, as.repository, habitID, userID)
	if err != nil {
		return nil, err
	}

	completions, err := as.repository.ListCompletionsBetween(ctx, habitID, utils.FormatDate(start), utils.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения выполнений: %w", err)
	}

	result := &HabitStats{
		Habit: HabitSummary{
			ID:   habit.ID,
			Name: habit.Name,
			StreakFields: database.StreakFields{
				CurrentStreak: habit.CurrentStreak,
				MaxStreak:     habit.MaxStreak,
				Strength:      habit.Strength,
			},
		},
		Period:      period,
		Completions: completions,
	}
	result.Period.TotalDays = int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	result.Period.CompletedDays = len(completions)

	if result.Period.TotalDays > 0 {
		result.Stats.CompletionRate = round2(float64(len(completions)) / float64(result.Period.TotalDays) * 100)
	}
	if len(completions) > 0 {
		var quality, mood int
		for _, c := range completions {
			if c.Quality != nil {
				quality += *c.Quality
			}
			if c.Mood != nil {
				mood += *c.Mood
			}
		}
		result.Stats.AverageQuality = round2(float64(quality) / float64(len(completions)))
		result.Stats.AverageMood = round2(float64(mood) / float64(len(completions)))
	}

	result.Insights = as.generateInsights(result)
	return result, nil
}

func (as *AnalyticsService) generateInsights(stats *HabitStats) string {
	if stats.Period.CompletedDays == 0 {
		return "📊 Данных для анализа недостаточно. Продолжайте отмечать выполнения!"
	}

	var insights []string

	rate := stats.Stats.CompletionRate
	if rate < 50 {
		insights = append(insights, "💪 Нужно больше регулярности")
	} else if rate > 80 {
		insights = append(insights, "🎯 Отличный период! Продолжайте в том же духе")
	} else {
		insights = append(insights, "📈 Хороший прогресс, есть куда расти")
	}

	if stats.Habit.CurrentStreak > 0 && stats.Habit.CurrentStreak == stats.Habit.MaxStreak {
		insights = append(insights, fmt.Sprintf("🔥 Лучшая серия: %d дн. подряд", stats.Habit.CurrentStreak))
	}

	if stats.Stats.AverageMood > 0 && stats.Stats.AverageMood < 2.5 {
		insights = append(insights, "🔋 Настроение после выполнения низкое. Проверьте нагрузку")
	}

	return strings.Join(insights, "\n")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
