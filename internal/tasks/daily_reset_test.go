package tasks

import (
	"context"
	"testing"
	"time"

	"genbot/internal/storage/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTask(schedule, tz string) (*DailyReset, *repository.MemoryAccountRepository) {
	repo := repository.NewMemoryAccountRepository()
	cfg := DailyResetConfig{Schedule: schedule, Timezone: tz, Generations: 3}
	return NewDailyReset(cfg, repo, zap.NewNop()), repo
}

func TestDailyReset_LaunchOnce(t *testing.T) {
	task, _ := newTask("0 0 * * *", "Europe/Moscow")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, task.Launch(ctx))
	assert.ErrorIs(t, task.Launch(ctx), ErrAlreadyLaunched)

	next, ok := task.NextRun()
	require.True(t, ok)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, "Europe/Moscow", next.Location().String())
}

func TestDailyReset_InvalidSchedule(t *testing.T) {
	task, _ := newTask("not a cron", "UTC")
	err := task.Launch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add daily reset to cron")

	_, ok := task.NextRun()
	assert.False(t, ok)
}

func TestDailyReset_InvalidTimezone(t *testing.T) {
	task, _ := newTask("0 0 * * *", "Mars/Olympus")
	assert.Error(t, task.Launch(context.Background()))
}

func TestDailyReset_RunOnce(t *testing.T) {
	task, repo := newTask("0 0 * * *", "UTC")
	ctx := context.Background()

	_, err := repo.Ensure(ctx, 1, "a", 0)
	require.NoError(t, err)
	_, err = repo.Ensure(ctx, 2, "b", 5)
	require.NoError(t, err)

	affected, err := task.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	a, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Generations)

	b, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Generations)
}

func TestDailyReset_EverySecond(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	_, err := repo.Ensure(context.Background(), 1, "a", 0)
	require.NoError(t, err)

	task := NewDailyReset(DailyResetConfig{Schedule: "@every 1s", Timezone: "UTC", Generations: 2}, repo, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, task.Launch(ctx))

	assert.Eventually(t, func() bool {
		a, err := repo.Get(context.Background(), 1)
		return err == nil && a.Generations == 2
	}, 3*time.Second, 50*time.Millisecond)
}
