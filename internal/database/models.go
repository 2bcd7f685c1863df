package database

import "time"

type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "DAILY"
	FrequencyWeekly  FrequencyType = "WEEKLY"
	FrequencyMonthly FrequencyType = "MONTHLY"
	FrequencyCustom  FrequencyType = "CUSTOM"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

type TaskStatus string

const (
	TaskAssigned   TaskStatus = "ASSIGNED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

type Habit struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Motivation      string        `json:"motivation,omitempty"`
	IconName        string        `json:"iconName"`
	ColorHex        string        `json:"colorHex"`
	CategoryID      string        `json:"categoryId,omitempty"`
	TemplateID      string        `json:"templateId,omitempty"`
	FrequencyType   FrequencyType `json:"frequencyType"`
	TimesPerWeek    *int          `json:"timesPerWeek,omitempty"`
	TimesPerMonth   *int          `json:"timesPerMonth,omitempty"`
	ReminderTime    *string       `json:"reminderTime,omitempty"`
	Duration        *int          `json:"duration,omitempty"`
	Difficulty      Difficulty    `json:"difficulty"`
	EnableReminders bool          `json:"enableReminders"`
	IsActive        bool          `json:"isActive"`
	Tags            []string      `json:"tags"`
	CurrentStreak   int           `json:"currentStreak"`
	MaxStreak       int           `json:"maxStreak"`
	Strength        int           `json:"strength"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	Completions []HabitCompletion `json:"completions,omitempty"`
}

type HabitCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	IconName    string `json:"iconName"`
	ColorHex    string `json:"colorHex"`
}

// HabitTemplate — готовая заготовка привычки из справочника
type HabitTemplate struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description,omitempty"`
	IconName             string        `json:"iconName"`
	ColorHex             string        `json:"colorHex"`
	CategoryID           string        `json:"categoryId"`
	DefaultFrequencyType FrequencyType `json:"defaultFrequencyType"`
	IsPopular            bool          `json:"isPopular"`
	Tips                 []string      `json:"tips"`

	Category *HabitCategory `json:"category,omitempty"`
}

// HabitCompletion — отметка выполнения привычки за календарный день.
// Date хранится как YYYY-MM-DD.
type HabitCompletion struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
	Notes     *string   `json:"notes,omitempty"`
	Duration  *int      `json:"duration,omitempty"`
	Quality   *int      `json:"quality,omitempty"` // 1-5
	Mood      *int      `json:"mood,omitempty"`    // 1-5
	CreatedAt time.Time `json:"createdAt"`
}

// StreakFields — производные поля привычки, которые пишет только пересчёт
type StreakFields struct {
	CurrentStreak int `json:"currentStreak"`
	MaxStreak     int `json:"maxStreak"`
	Strength      int `json:"strength"`
}

type Task struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Priority      TaskPriority `json:"priority"`
	Status        TaskStatus   `json:"status"`
	Deadline      time.Time    `json:"deadline"`
	ReminderAt    *time.Time   `json:"reminderAt,omitempty"`
	HabitID       *string      `json:"habitId,omitempty"`
	IsRecurring   bool         `json:"isRecurring"`
	RecurringType string       `json:"recurringType,omitempty"`
	Tags          []string     `json:"tags"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
	Search   string
	HabitID  string
}

type DeviceToken struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	PlayerID   string    `json:"playerId"`
	Platform   string    `json:"platform"`
	LastActive time.Time `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NotificationSettings — пользовательские переключатели уведомлений.
// EnabledDays: 0 — воскресенье, 6 — суббота.
type NotificationSettings struct {
	UserID                string    `json:"userId"`
	HabitsEnabled         bool      `json:"habitsEnabled"`
	TasksEnabled          bool      `json:"tasksEnabled"`
	WorkoutsEnabled       bool      `json:"workoutsEnabled"`
	HealthEnabled         bool      `json:"healthEnabled"`
	MotivationalEnabled   bool      `json:"motivationalEnabled"`
	AchievementsEnabled   bool      `json:"achievementsEnabled"`
	QuietHoursStart       string    `json:"quietHoursStart"`
	QuietHoursEnd         string    `json:"quietHoursEnd"`
	MotivationalFrequency int       `json:"motivationalFrequency"`
	EnabledDays           []int     `json:"enabledDays"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// HabitReminder — строка выборки для минутной проверки напоминаний
type HabitReminder struct {
	ID     string
	Name   string
	UserID string
}

// TaskReminder — строка выборки для проверки задач с близким сроком
type TaskReminder struct {
	ID         string
	Title      string
	UserID     string
	Deadline   time.Time
	ReminderAt *time.Time
}
