package services

import (
	"math"
	"time"

	"alfa-forge/internal/database"
	"alfa-forge/internal/utils"
)

const (
	// streakHistoryLimit — сколько последних выполнений читает пересчёт
	streakHistoryLimit = 365
	strengthWindow     = 30
)

// RecomputeStreak вычисляет производные поля привычки по датам выполнений.
// dates упорядочены от новых к старым и нормализованы к полуночи UTC
// (см. utils.ParseDate), today — календарный день в том же представлении.
//
// Текущий стрик начинается только с сегодняшнего или вчерашнего выполнения.
// Сила считает записи, а не календарные дни: берутся первые 30 записей.
func RecomputeStreak(dates []time.Time, today time.Time) database.StreakFields {
	var result database.StreakFields

	yesterday := today.Add(-utils.Day)
	if len(dates) > 0 && (dates[0].Equal(today) || dates[0].Equal(yesterday)) {
		result.CurrentStreak = 1
		prev := dates[0]
		for _, d := range dates[1:] {
			if !consecutive(d, prev) {
				break
			}
			result.CurrentStreak++
			prev = d
		}
	}

	run := 0
	for i := len(dates) - 1; i >= 0; i-- {
		if i == len(dates)-1 || consecutive(dates[i], dates[i+1]) {
			run++
		} else {
			run = 1
		}
		if run > result.MaxStreak {
			result.MaxStreak = run
		}
	}

	window := len(dates)
	if window > strengthWindow {
		window = strengthWindow
	}
	strength := int(math.Round(float64(window) / strengthWindow * 100))
	result.Strength = min(100, strength)

	return result
}

// consecutive сравнивает моменты буквально: соседние дни отличаются ровно на 24 часа
func consecutive(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff == utils.Day
}
