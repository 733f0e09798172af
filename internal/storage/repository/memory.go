package repository

import (
	"context"
	"genbot/internal/model"
	"sync"
	"time"
)

// MemoryAccountRepository хранит аккаунты в памяти; используется без DB_DSN
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[int64]model.Account
	now      func() time.Time
}

var _ model.AccountRepository = (*MemoryAccountRepository)(nil)

// NewMemoryAccountRepository создает репозиторий в памяти
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[int64]model.Account),
		now:      time.Now,
	}
}

func (r *MemoryAccountRepository) Ensure(_ context.Context, userID int64, username string, generations int) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	account, ok := r.accounts[userID]
	if !ok {
		account = model.Account{
			UserID:      userID,
			Generations: generations,
			CreatedAt:   now,
		}
	}
	account.Username = username
	account.UpdatedAt = now
	r.accounts[userID] = account

	return &account, nil
}

func (r *MemoryAccountRepository) Get(_ context.Context, userID int64) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[userID]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &account, nil
}

func (r *MemoryAccountRepository) ResetDailyGenerations(_ context.Context, limit int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	now := r.now()
	for id, account := range r.accounts {
		if account.Generations < limit {
			account.Generations = limit
			account.UpdatedAt = now
			r.accounts[id] = account
			affected++
		}
	}
	return affected, nil
}
