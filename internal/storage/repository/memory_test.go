package repository

import (
	"context"
	"genbot/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	account, err := repo.Ensure(ctx, 1, "alice", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, account.Generations)
	assert.Equal(t, "alice", account.Username)

	// повторный вызов не сбрасывает баланс, но обновляет имя
	account.Generations = 0
	account, err = repo.Ensure(ctx, 1, "alice_new", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, account.Generations)
	assert.Equal(t, "alice_new", account.Username)
}

func TestMemoryAccountRepository_ResetDailyGenerations(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	_, _ = repo.Ensure(ctx, 1, "a", 0)
	_, _ = repo.Ensure(ctx, 2, "b", 5)
	_, _ = repo.Ensure(ctx, 3, "c", 1)

	affected, err := repo.ResetDailyGenerations(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	for id, want := range map[int64]int{1: 3, 2: 5, 3: 3} {
		account, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, account.Generations, "user %d", id)
	}
}
