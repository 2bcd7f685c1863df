package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"alfa-forge/internal/app"
	"alfa-forge/internal/config"
	"alfa-forge/internal/database"
	"alfa-forge/internal/logger"
	"alfa-forge/internal/services"
)

var (
	configPath string
	habitID    string

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "alfa-forge",
		Short:         "Трекер привычек и задач с напоминаниями",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(logger.Config{
				Level: loaded.Log.Level,
				File:  loaded.Log.File,
				Debug: loaded.Log.Debug,
			}); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API, Telegram-бота и планировщик напоминаний",
		RunE:  runServe,
	}

	recomputeCmd = &cobra.Command{
		Use:   "recompute",
		Short: "Пересчитать стрики и силу привычек по сохранённым выполнениям",
		RunE:  runRecompute,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Однократно разослать напоминания о привычках и задачах",
		RunE:  runSweep,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к YAML-конфигурации (иначе CONFIG_FILE)")
	recomputeCmd.Flags().StringVar(&habitID, "habit", "", "id привычки; по умолчанию пересчитываются все")

	rootCmd.AddCommand(serveCmd, recomputeCmd, sweepCmd)
}

// Execute разбирает аргументы и выполняет команду; ctx отменяется по сигналу
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("ошибка создания приложения: %w", err)
	}
	defer application.Close()

	return application.Run(cmd.Context())
}

func runRecompute(cmd *cobra.Command, args []string) error {
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	sm := services.NewServiceManager(db, nil, cfg.Scheduler.TaskLookahead)

	if habitID != "" {
		fields, err := sm.Habit.Recompute(cmd.Context(), habitID)
		if err != nil {
			return err
		}
		logger.Info("✅ Привычка пересчитана", "habit", habitID,
			"current", fields.CurrentStreak, "max", fields.MaxStreak, "strength", fields.Strength)
		return nil
	}

	n, err := sm.Habit.RecomputeAll(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("✅ Привычки пересчитаны", "count", n)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("ошибка создания приложения: %w", err)
	}
	defer application.Close()

	return application.SweepOnce(cmd.Context())
}
