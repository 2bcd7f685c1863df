package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"alfa-forge/internal/cli"
	"alfa-forge/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		logger.Error("❌ Ошибка выполнения команды", "err", err)
		stop()
		os.Exit(1)
	}
	logger.Info("👋 Приложение завершает работу")
}
