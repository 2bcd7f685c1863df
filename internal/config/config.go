package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	OneSignal struct {
		AppID     string  `yaml:"app_id"`
		APIKey    string  `yaml:"api_key"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"onesignal"`
	Scheduler struct {
		HabitSpec     string        `yaml:"habit_spec"`
		TaskSpec      string        `yaml:"task_spec"`
		TaskLookahead time.Duration `yaml:"task_lookahead"`
	} `yaml:"scheduler"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
		Debug bool   `yaml:"debug"`
	} `yaml:"log"`
}

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Database.Driver = DriverSQLite
	cfg.Database.DSN = "/data/alfa-forge.db"
	cfg.OneSignal.RateLimit = 10
	cfg.Scheduler.HabitSpec = "* * * * *"
	cfg.Scheduler.TaskSpec = "*/5 * * * *"
	cfg.Scheduler.TaskLookahead = 15 * time.Minute
	cfg.Log.Level = "info"
	return cfg
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если
// указан), затем переменные окружения.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", getEnv("DB_PATH", c.Database.DSN))
	c.Telegram.Token = getEnv("TG_TOKEN", c.Telegram.Token)
	c.OneSignal.AppID = getEnv("ONESIGNAL_APP_ID", c.OneSignal.AppID)
	c.OneSignal.APIKey = getEnv("ONESIGNAL_REST_API_KEY", c.OneSignal.APIKey)
	c.Scheduler.HabitSpec = getEnv("HABIT_REMINDER_SPEC", c.Scheduler.HabitSpec)
	c.Scheduler.TaskSpec = getEnv("TASK_REMINDER_SPEC", c.Scheduler.TaskSpec)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	if v := os.Getenv("LOG_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("неверный LOG_DEBUG: %w", err)
		}
		c.Log.Debug = debug
	}
	if v := os.Getenv("TASK_REMINDER_LOOKAHEAD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("неверный TASK_REMINDER_LOOKAHEAD: %w", err)
		}
		c.Scheduler.TaskLookahead = d
	}
	if v := os.Getenv("ONESIGNAL_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("неверный ONESIGNAL_RATE_LIMIT: %w", err)
		}
		c.OneSignal.RateLimit = limit
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("неизвестный драйвер БД: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("не задан DSN базы данных")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("не задан порт сервера")
	}
	if c.Scheduler.TaskLookahead <= 0 {
		return fmt.Errorf("окно напоминаний о задачах должно быть положительным")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
