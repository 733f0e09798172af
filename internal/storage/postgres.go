// Package storage содержит работу с базой данных.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"genbot/internal/model"
	"genbot/internal/storage/repository"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

// Postgres представляет подключение к PostgreSQL
type Postgres struct {
	db     *bun.DB
	logger *zap.Logger
}

// ConnectOptions управляет повторными попытками подключения
type ConnectOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConnectOptions возвращает 10 попыток с паузой 5 секунд
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{MaxRetries: 10, RetryDelay: 5 * time.Second}
}

// NewPostgres создает новое подключение к PostgreSQL с retry логикой
func NewPostgres(ctx context.Context, databaseURL string, opts ConnectOptions, logger *zap.Logger) (*Postgres, error) {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		logger.Info("Attempting to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", opts.MaxRetries))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))

		sqldb.SetMaxOpenConns(25)
		sqldb.SetMaxIdleConns(10)
		sqldb.SetConnMaxLifetime(5 * time.Minute)
		sqldb.SetConnMaxIdleTime(1 * time.Minute)

		db := bun.NewDB(sqldb, pgdialect.New())

		if logger.Core().Enabled(zap.DebugLevel) {
			db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		}

		pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
		lastErr = db.PingContext(pingCtx)
		pingCancel()

		if lastErr == nil {
			logger.Info("Connected to PostgreSQL database with Bun ORM", zap.Int("attempt", attempt))
			return &Postgres{db: db, logger: logger}, nil
		}

		logger.Warn("Failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}

		if attempt == opts.MaxRetries {
			break
		}

		logger.Info("Retrying connection", zap.Duration("delay", opts.RetryDelay))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", opts.MaxRetries, lastErr)
}

// Migrate создает недостающие таблицы
func (p *Postgres) Migrate(ctx context.Context) error {
	return repository.NewAccountRepository(p.db, p.logger).CreateTable(ctx)
}

// Ping проверяет подключение к базе данных
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (p *Postgres) Close() error {
	return p.db.Close()
}

// GetDB возвращает подключение к базе данных
func (p *Postgres) GetDB() *bun.DB {
	return p.db
}

// GetAccountRepository возвращает репозиторий аккаунтов
func (p *Postgres) GetAccountRepository() model.AccountRepository {
	return repository.NewAccountRepository(p.db, p.logger)
}
