package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"alfa-forge/internal/config"
	"alfa-forge/internal/database"
	"alfa-forge/internal/logger"
	"alfa-forge/internal/push"
	"alfa-forge/internal/server"
	"alfa-forge/internal/services"
	"alfa-forge/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	config   *config.Config
	db       *database.Database
	bot      *telegram.Bot
	services *services.ServiceManager
	cron     *cron.Cron
	http     *http.Server
}

func New(cfg *config.Config) (*Application, error) {
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var pushSender services.PushSender
	client := push.NewClient(push.Config{
		AppID:     cfg.OneSignal.AppID,
		APIKey:    cfg.OneSignal.APIKey,
		RateLimit: cfg.OneSignal.RateLimit,
	})
	if client.Enabled() {
		pushSender = client
	} else {
		logger.Warn("⚠️ OneSignal не настроен, push-уведомления отключены")
	}

	serviceManager := services.NewServiceManager(db, pushSender, cfg.Scheduler.TaskLookahead)

	app := &Application{
		config:   cfg,
		db:       db,
		services: serviceManager,
		cron:     cron.New(),
		http:     server.NewHTTPServer(cfg, db, serviceManager),
	}

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, serviceManager)
		if err != nil {
			db.Close()
			return nil, err
		}
		serviceManager.SetChatSender(bot)
		app.bot = bot
	} else {
		logger.Warn("⚠️ TG_TOKEN не задан, Telegram-бот отключён")
	}

	if err := app.setupCronJobs(); err != nil {
		db.Close()
		return nil, err
	}

	return app, nil
}

// Run запускает HTTP-сервер, бота и планировщик и блокируется до отмены ctx
func (a *Application) Run(ctx context.Context) error {
	logger.Info("🚀 Запуск приложения...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("🌐 API доступен", "port", a.config.Server.Port)
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	})

	if a.bot != nil {
		g.Go(func() error {
			logger.Info("🤖 Бот запущен", "username", a.bot.GetUsername())
			return a.bot.Start(ctx)
		})
	}

	a.cron.Start()
	logger.Info("⏰ Планировщик запущен",
		"habits", a.config.Scheduler.HabitSpec, "tasks", a.config.Scheduler.TaskSpec)

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("🛑 Остановка приложения...")

		<-a.cron.Stop().Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ошибка остановки HTTP-сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// SweepOnce выполняет оба прохода напоминаний один раз
func (a *Application) SweepOnce(ctx context.Context) error {
	habits, habitErr := a.services.Reminders.SweepHabits(ctx)
	tasks, taskErr := a.services.Reminders.SweepTasks(ctx)
	logger.Info("📨 Напоминания разосланы", "habits", habits, "tasks", tasks)
	return errors.Join(habitErr, taskErr)
}

func (a *Application) Close() error {
	if err := a.db.Close(); err != nil {
		logger.Warn("⚠️ Ошибка закрытия БД", "err", err)
		return err
	}
	logger.Info("✅ Приложение остановлено")
	return nil
}

func (a *Application) setupCronJobs() error {
	// Напоминания о привычках: каждую минуту сверяем reminderTime с текущим HH:MM
	if _, err := a.cron.AddFunc(a.config.Scheduler.HabitSpec, func() {
		if _, err := a.services.Reminders.SweepHabits(context.Background()); err != nil {
			logger.Error("❌ Ошибка прохода напоминаний о привычках", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("неверное расписание привычек %q: %w", a.config.Scheduler.HabitSpec, err)
	}

	if _, err := a.cron.AddFunc(a.config.Scheduler.TaskSpec, func() {
		if _, err := a.services.Reminders.SweepTasks(context.Background()); err != nil {
			logger.Error("❌ Ошибка прохода напоминаний о задачах", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("неверное расписание задач %q: %w", a.config.Scheduler.TaskSpec, err)
	}

	return nil
}
