package utils

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Day — одни сутки; две даты, нормализованные к полуночи, соседние ровно тогда,
// когда между ними Day.
const Day = 24 * time.Hour

var (
	clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
	datePattern  = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
)

// ParseDate разбирает YYYY-MM-DD в полночь UTC этого календарного дня
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("дата должна быть в формате YYYY-MM-DD: %q", s)
	}
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CalendarDay возвращает календарный день момента t по часовому поясу t,
// представленный полуночью UTC, чтобы его можно было сравнивать с ParseDate.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clock возвращает HH:MM в часовом поясе t
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}

func IsClock(s string) bool {
	return clockPattern.MatchString(s)
}

// FormatTimestamp приводит момент к UTC с точностью до секунды. Строки
// одинаковой длины, поэтому их лексикографический порядок совпадает с
// хронологическим.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ParseDay принимает YYYY-MM-DD или момент в RFC 3339 и отбрасывает время суток.
// Для RFC 3339 берётся календарный день в смещении, указанном в строке.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return CalendarDay(t), nil
	}
	return ParseDate(s)
}
