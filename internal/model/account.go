// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Account, AccountRepository
package model

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// ErrAccountNotFound возвращается, когда аккаунт пользователя не создан
var ErrAccountNotFound = errors.New("account not found")

// Account представляет аккаунт пользователя и его баланс генераций
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	UserID               int64     `bun:"user_id,pk" json:"user_id"`
	Username             string    `bun:"username" json:"username"`
	Generations          int       `bun:"generations,notnull" json:"generations"`
	PurchasedGenerations int       `bun:"purchased_generations,notnull,default:0" json:"purchased_generations"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Total возвращает общее количество доступных генераций
func (a *Account) Total() int {
	return a.Generations + a.PurchasedGenerations
}

// AccountRepository определяет интерфейс для работы с аккаунтами
type AccountRepository interface {
	// Ensure создает аккаунт с начальным балансом или обновляет имя существующего
	Ensure(ctx context.Context, userID int64, username string, generations int) (*Account, error)
	Get(ctx context.Context, userID int64) (*Account, error)
	// ResetDailyGenerations поднимает дневной баланс до limit у всех, у кого он меньше
	ResetDailyGenerations(ctx context.Context, limit int) (int64, error)
}
