// Package app содержит фабрику компонентов приложения.
package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"genbot/internal/commands"
	"genbot/internal/config"
	"genbot/internal/dispatcher"
	"genbot/internal/external/telegram"
	"genbot/internal/fsm"
	"genbot/internal/handlers"
	"genbot/internal/health"
	"genbot/internal/middleware"
	"genbot/internal/model"
	"genbot/internal/storage"
	"genbot/internal/storage/repository"
	"genbot/internal/tasks"
	"genbot/internal/webhook"
	"genbot/internal/worker"

	"go.uber.org/zap"
)

const middlewareCleanupInterval = 5 * time.Minute

// FSMStorage хранилище состояний с проверкой доступности
type FSMStorage interface {
	fsm.Storage
	health.Pinger
}

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(cfg *config.Config, logger *zap.Logger) *ComponentFactory {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}

	return &ComponentFactory{
		config: cfg,
		logger: logger,
	}
}

// CreateTelegramClient создает клиент Telegram
func (f *ComponentFactory) CreateTelegramClient() (*telegram.Client, error) {
	if f.config.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	client, err := telegram.NewClient(telegram.Config{
		Token:              f.config.BotToken,
		APIEndpoint:        f.config.APIEndpoint,
		HTTPTimeout:        f.config.HTTPTimeout,
		DropPendingUpdates: f.config.Webhook.DropPendingUpdates,
		Breaker:            telegram.DefaultBreakerConfig(),
	}, f.logger.Named("telegram"))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	f.logger.Info("Telegram client created successfully")
	return client, nil
}

// CreateFSMStorage создает хранилище состояний: Redis, если задан REDIS_URL, иначе память
func (f *ComponentFactory) CreateFSMStorage(ctx context.Context) (FSMStorage, error) {
	if f.config.RedisURL == "" {
		f.logger.Warn("REDIS_URL is not set, FSM state is kept in memory")
		return fsm.NewMemoryStorage(), nil
	}

	s, err := fsm.NewRedisStorageFromURL(ctx, f.config.RedisURL, f.logger.Named("fsm"))
	if err != nil {
		return nil, fmt.Errorf("failed to create redis storage: %w", err)
	}

	f.logger.Info("Redis FSM storage created successfully")
	return s, nil
}

// CreateAccounts создает репозиторий аккаунтов: Postgres, если задан DB_DSN, иначе память.
// Возвращаемый *storage.Postgres равен nil для хранилища в памяти.
func (f *ComponentFactory) CreateAccounts(ctx context.Context) (model.AccountRepository, *storage.Postgres, error) {
	if f.config.DatabaseURL == "" {
		f.logger.Warn("DB_DSN is not set, accounts are kept in memory")
		return repository.NewMemoryAccountRepository(), nil, nil
	}

	db, err := storage.NewPostgres(ctx, f.config.DatabaseURL, storage.DefaultConnectOptions(), f.logger.Named("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	f.logger.Info("Database connection created successfully")
	return db.GetAccountRepository(), db, nil
}

// CreateMiddleware создает стандартную цепочку middleware
func (f *ComponentFactory) CreateMiddleware() *middleware.Middleware {
	return middleware.New(middleware.Config{
		RateLimitRPS:   f.config.RateLimit.RPS,
		RateLimitBurst: f.config.RateLimit.Burst,
	}, f.logger.Named("middleware"))
}

// CreateController собирает контроллер со всеми зависимостями.
// Функция cleanup освобождает хранилища и должна быть вызвана после Run.
func (f *ComponentFactory) CreateController(ctx context.Context) (*Controller, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Controller, func(), error) {
		cleanup()
		return nil, nil, err
	}

	client, err := f.CreateTelegramClient()
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = client.Close() })

	fsmStorage, err := f.CreateFSMStorage(ctx)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := fsmStorage.Close(); err != nil {
			f.logger.Warn("Failed to close FSM storage", zap.Error(err))
		}
	})

	accounts, db, err := f.CreateAccounts(ctx)
	if err != nil {
		return fail(err)
	}
	if db != nil {
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				f.logger.Warn("Failed to close database connection", zap.Error(err))
			}
		})
	}

	disp := dispatcher.New(client.API(), fsmStorage, client.Self().ID, f.logger.Named("dispatcher"))

	mw := f.CreateMiddleware()
	disp.UseOuter(mw.Chain()...)
	go mw.RunCleanup(ctx, middlewareCleanupInterval)

	h := handlers.New(accounts, commands.Default(), handlers.DefaultPackages(),
		f.config.Tasks.DailyGenerations, f.logger.Named("handlers"))
	disp.Include(h.Router())

	reset := tasks.NewDailyReset(tasks.DailyResetConfig{
		Schedule:    f.config.Tasks.ResetSchedule,
		Timezone:    f.config.Tasks.Timezone,
		Generations: f.config.Tasks.DailyGenerations,
	}, accounts, f.logger.Named("tasks"))

	healthHandler := health.NewHandler(f.logger.Named("health"))
	healthHandler.AddCheck("fsm", fsmStorage)
	if db != nil {
		healthHandler.AddCheck("database", db)
	}

	pool := worker.NewPool(f.config.Webhook.Workers, f.config.Webhook.QueueSize, f.logger.Named("worker"))
	server := webhook.New(webhook.Config{
		Addr:            f.config.Webhook.Addr(),
		Path:            f.config.Webhook.Path,
		ShutdownTimeout: f.config.Webhook.ShutdownTimeout,
	}, client, disp, disp, pool, f.logger.Named("webhook"),
		webhook.WithOnReady(func(net.Addr) { healthHandler.SetReady(true) }))
	healthHandler.Register(server.Mux())

	polling := dispatcher.DefaultPollingOptions()
	polling.Timeout = f.config.PollTimeout

	controller := NewController(client, disp, server, reset, Options{
		Commands:       commands.Default(),
		WebhookURL:     f.config.Webhook.URL(),
		OnStartupError: f.config.OnStartupError,
		Polling:        polling,
	}, f.logger)

	f.logger.Info("Controller created successfully with all dependencies")
	return controller, cleanup, nil
}
