package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alfa-forge/internal/database"
	"alfa-forge/internal/utils"
)

var streakToday = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

// daysAgo builds newest-first completion dates from offsets relative to streakToday.
func daysAgo(offsets ...int) []time.Time {
	dates := make([]time.Time, len(offsets))
	for i, o := range offsets {
		dates[i] = streakToday.AddDate(0, 0, -o)
	}
	return dates
}

func TestRecomputeStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
		want  database.StreakFields
	}{
		{
			name:  "no completions",
			dates: nil,
			want:  database.StreakFields{},
		},
		{
			name:  "three consecutive days ending today",
			dates: daysAgo(0, 1, 2),
			want:  database.StreakFields{CurrentStreak: 3, MaxStreak: 3, Strength: 10},
		},
		{
			name:  "gap yesterday breaks the walk",
			dates: daysAgo(0, 2),
			want:  database.StreakFields{CurrentStreak: 1, MaxStreak: 1, Strength: 7},
		},
		{
			name:  "streak may start yesterday",
			dates: daysAgo(1, 2, 3, 4),
			want:  database.StreakFields{CurrentStreak: 4, MaxStreak: 4, Strength: 13},
		},
		{
			name:  "last completion three days ago",
			dates: daysAgo(3, 4, 5),
			want:  database.StreakFields{CurrentStreak: 0, MaxStreak: 3, Strength: 10},
		},
		{
			name:  "future completion does not count as current",
			dates: daysAgo(-1, 0),
			want:  database.StreakFields{CurrentStreak: 0, MaxStreak: 2, Strength: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecomputeStreak(tt.dates, streakToday))
		})
	}
}

func TestRecomputeStreak_MaxIndependentOfRecency(t *testing.T) {
	// recent run: today and yesterday; then a gap; then a 10-day run
	offsets := []int{0, 1}
	for o := 5; o < 15; o++ {
		offsets = append(offsets, o)
	}

	got := RecomputeStreak(daysAgo(offsets...), streakToday)

	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, 10, got.MaxStreak)
}

func TestRecomputeStreak_StrengthBounds(t *testing.T) {
	offsets := make([]int, 0, 40)
	for o := 0; o < 40; o++ {
		offsets = append(offsets, o*2) // sparse: every other day
	}

	got := RecomputeStreak(daysAgo(offsets...), streakToday)
	assert.Equal(t, 100, got.Strength, "30+ records in the window saturate strength")
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.MaxStreak)

	for n := 0; n <= 40; n++ {
		s := RecomputeStreak(daysAgo(offsets[:n]...), streakToday).Strength
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 100)
	}
}

func TestRecomputeStreak_UnnormalizedDateBreaksConsecutiveness(t *testing.T) {
	dates := []time.Time{streakToday, streakToday.Add(-utils.Day + time.Hour)}

	got := RecomputeStreak(dates, streakToday)

	assert.Equal(t, 1, got.CurrentStreak)
}
