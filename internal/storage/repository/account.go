// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"genbot/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AccountRepository реализует model.AccountRepository поверх bun
type AccountRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

var _ model.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository создает новый репозиторий аккаунтов
func NewAccountRepository(db bun.IDB, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTable создает таблицу аккаунтов, если ее нет
func (r *AccountRepository) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*model.Account)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}
	return nil
}

// Ensure создает аккаунт или обновляет username существующего
func (r *AccountRepository) Ensure(ctx context.Context, userID int64, username string, generations int) (*model.Account, error) {
	account := &model.Account{
		UserID:      userID,
		Username:    username,
		Generations: generations,
	}

	if _, err := ensureQuery(r.db, account).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return account, nil
}

// Get возвращает аккаунт по ID пользователя
func (r *AccountRepository) Get(ctx context.Context, userID int64) (*model.Account, error) {
	account := new(model.Account)

	err := r.db.NewSelect().
		Model(account).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return account, nil
}

// ResetDailyGenerations восстанавливает дневной баланс
func (r *AccountRepository) ResetDailyGenerations(ctx context.Context, limit int) (int64, error) {
	res, err := resetQuery(r.db, limit).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset generations: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	r.logger.Info("Daily generations reset",
		zap.Int("limit", limit),
		zap.Int64("accounts", affected))

	return affected, nil
}

func ensureQuery(db bun.IDB, account *model.Account) *bun.InsertQuery {
	return db.NewInsert().
		Model(account).
		On("CONFLICT (user_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("updated_at = current_timestamp").
		Returning("*")
}

func resetQuery(db bun.IDB, limit int) *bun.UpdateQuery {
	return db.NewUpdate().
		Model((*model.Account)(nil)).
		Set("generations = ?", limit).
		Set("updated_at = current_timestamp").
		Where("generations < ?", limit)
}
