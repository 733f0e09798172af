// Package main запускает Telegram-бота продажи генераций.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"genbot/internal/app"
	"genbot/internal/config"
	"genbot/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log, logErr := logger.New(logger.DefaultConfig())
		if logErr != nil {
			log = zap.NewExample()
		}
		log.Error("Failed to load configuration", zap.Error(err))
		_ = log.Sync()
		return 1
	}

	// Инициализация логгера
	log, err := logger.New(cfg.Log)
	if err != nil {
		zap.NewExample().Error("Failed to create logger", zap.Error(err))
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := app.ModeFromDebug(cfg.Debug)

	// Создание контроллера через фабрику
	factory := app.NewComponentFactory(cfg, log)
	controller, cleanup, err := factory.CreateController(ctx)
	if err != nil {
		err = fmt.Errorf("failed to create bot: %w", err)
		if mode == app.ModeProduction && app.ApplyStartupPolicy(cfg.OnStartupError, err, log) == nil {
			return 0
		}
		log.Error("Bot stopped with error", zap.Error(err))
		return 1
	}
	defer cleanup()

	log.Info("Application started", zap.Stringer("mode", mode))
	if err := controller.Run(ctx, mode); err != nil {
		log.Error("Bot stopped with error", zap.Error(err))
		return 1
	}

	log.Info("Bot stopped successfully")
	return 0
}
