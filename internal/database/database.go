package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"alfa-forge/internal/logger"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Database struct {
	db     *sql.DB
	driver string
}

func New(driver, dsn string) (*Database, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite не допускает параллельных писателей; одно соединение
		// сериализует транзакции пересчёта стриков.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	d := &Database{db: db, driver: driver}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("✅ База данных инициализирована", "driver", driver)
	return d, nil
}

func (d *Database) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS habits (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			motivation TEXT NOT NULL DEFAULT '',
			icon_name TEXT NOT NULL DEFAULT '',
			color_hex TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT '',
			template_id TEXT NOT NULL DEFAULT '',
			frequency_type TEXT NOT NULL,
			times_per_week INTEGER,
			times_per_month INTEGER,
			reminder_time TEXT,
			duration INTEGER,
			difficulty TEXT NOT NULL,
			enable_reminders BOOLEAN NOT NULL,
			is_active BOOLEAN NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			current_streak INTEGER NOT NULL DEFAULT 0,
			max_streak INTEGER NOT NULL DEFAULT 0,
			strength INTEGER NOT NULL DEFAULT 0 CHECK(strength >= 0 AND strength <= 100),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS habit_completions (
			id TEXT PRIMARY KEY,
			habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			completed BOOLEAN NOT NULL,
			notes TEXT,
			duration INTEGER,
			quality INTEGER CHECK(quality >= 1 AND quality <= 5),
			mood INTEGER CHECK(mood >= 1 AND mood <= 5),
			created_at TEXT NOT NULL,
			UNIQUE(habit_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			deadline TEXT NOT NULL,
			reminder_at TEXT,
			habit_id TEXT,
			is_recurring BOOLEAN NOT NULL,
			recurring_type TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS device_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			player_id TEXT UNIQUE NOT NULL,
			platform TEXT NOT NULL,
			last_active TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS habit_categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			icon_name TEXT NOT NULL,
			color_hex TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS habit_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon_name TEXT NOT NULL,
			color_hex TEXT NOT NULL,
			category_id TEXT NOT NULL REFERENCES habit_categories(id),
			default_frequency_type TEXT NOT NULL,
			is_popular BOOLEAN NOT NULL DEFAULT FALSE,
			tips TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS notification_settings (
			user_id TEXT PRIMARY KEY,
			habits_enabled BOOLEAN NOT NULL,
			tasks_enabled BOOLEAN NOT NULL,
			workouts_enabled BOOLEAN NOT NULL,
			health_enabled BOOLEAN NOT NULL,
			motivational_enabled BOOLEAN NOT NULL,
			achievements_enabled BOOLEAN NOT NULL,
			quiet_hours_start TEXT NOT NULL,
			quiet_hours_end TEXT NOT NULL,
			motivational_frequency INTEGER NOT NULL,
			enabled_days TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_habits_reminder ON habits(reminder_time)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_habit_date ON habit_completions(habit_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_reminder ON tasks(reminder_at)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_user ON device_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_category ON habit_templates(category_id)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("ошибка создания таблицы: %w", err)
		}
	}

	return d.seedCatalog()
}

var defaultCategories = []HabitCategory{
	{ID: "health", Name: "Здоровье", DisplayName: "Здоровье", IconName: "favorite", ColorHex: "#E91E63"},
	{ID: "fitness", Name: "Фитнес", DisplayName: "Фитнес", IconName: "fitness_center", ColorHex: "#FF5722"},
	{ID: "mind", Name: "Разум", DisplayName: "Разум", IconName: "psychology", ColorHex: "#9C27B0"},
}

var defaultTemplates = []HabitTemplate{
	{
		ID: "drink-water", Name: "Пить воду", Description: "Выпивать достаточное количество воды в день",
		IconName: "water_drop", ColorHex: "#2196F3", CategoryID: "health",
		DefaultFrequencyType: FrequencyDaily, IsPopular: true,
		Tips: []string{"Носите бутылку с водой", "Ставьте напоминания"},
	},
	{
		ID: "meditation", Name: "Медитация", Description: "Практика осознанности и концентрации",
		IconName: "self_improvement", ColorHex: "#9C27B0", CategoryID: "mind",
		DefaultFrequencyType: FrequencyDaily, IsPopular: true,
		Tips: []string{"Начните с 5 минут", "Найдите тихое место"},
	},
}

// seedCatalog добавляет справочные категории и шаблоны; существующие строки не трогает
func (d *Database) seedCatalog() error {
	for _, c := range defaultCategories {
		_, err := d.db.Exec(d.Rebind(`
			INSERT INTO habit_categories (id, name, display_name, icon_name, color_hex)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`), c.ID, c.Name, c.DisplayName, c.IconName, c.ColorHex)
		if err != nil {
			return fmt.Errorf("ошибка заполнения категорий: %w", err)
		}
	}

	for _, t := range defaultTemplates {
		_, err := d.db.Exec(d.Rebind(`
			INSERT INTO habit_templates (id, name, description, icon_name, color_hex, category_id,
				default_frequency_type, is_popular, tips)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`), t.ID, t.Name, t.Description, t.IconName, t.ColorHex, t.CategoryID,
			string(t.DefaultFrequencyType), t.IsPopular, encodeTags(t.Tips))
		if err != nil {
			return fmt.Errorf("ошибка заполнения шаблонов: %w", err)
		}
	}
	return nil
}

// Rebind переписывает плейсхолдеры ? в $1, $2, ... для postgres
func (d *Database) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Health пингует БД и возвращает статистику пула соединений
func (d *Database) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := d.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := d.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	return stats
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}
