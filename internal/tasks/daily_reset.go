// Package tasks содержит фоновые задачи по расписанию.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // TIMEZONE должен работать и в образах без zoneinfo

	"genbot/internal/model"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrAlreadyLaunched возвращается при повторном запуске задачи
var ErrAlreadyLaunched = errors.New("daily reset task already launched")

// DailyResetConfig настройки ежедневного сброса генераций
type DailyResetConfig struct {
	Schedule    string
	Timezone    string
	Generations int
	Timeout     time.Duration
}

// DailyReset восстанавливает бесплатные генерации по расписанию
type DailyReset struct {
	cfg      DailyResetConfig
	accounts model.AccountRepository
	logger   *zap.Logger

	mu       sync.Mutex
	launched bool
	cron     *cron.Cron
}

// NewDailyReset создает задачу сброса
func NewDailyReset(cfg DailyResetConfig, accounts model.AccountRepository, logger *zap.Logger) *DailyReset {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &DailyReset{
		cfg:      cfg,
		accounts: accounts,
		logger:   logger,
	}
}

// Launch регистрирует задачу в cron и запускает его. Вызывается один раз;
// cron останавливается при отмене ctx.
func (d *DailyReset) Launch(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.launched {
		return ErrAlreadyLaunched
	}

	loc, err := time.LoadLocation(d.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", d.cfg.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(d.cfg.Schedule, func() { d.run(ctx) }); err != nil {
		return fmt.Errorf("failed to add daily reset to cron: %w", err)
	}

	c.Start()
	d.cron = c
	d.launched = true

	d.logger.Info("Daily reset task launched",
		zap.String("schedule", d.cfg.Schedule),
		zap.String("timezone", loc.String()))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		d.logger.Info("Daily reset task stopped")
	}()

	return nil
}

// NextRun возвращает время следующего запуска, если задача запущена
func (d *DailyReset) NextRun() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron == nil {
		return time.Time{}, false
	}
	entries := d.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

// RunOnce выполняет сброс немедленно
func (d *DailyReset) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	affected, err := d.accounts.ResetDailyGenerations(ctx, d.cfg.Generations)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily generations: %w", err)
	}
	return affected, nil
}

func (d *DailyReset) run(ctx context.Context) {
	start := time.Now()
	affected, err := d.RunOnce(ctx)
	if err != nil {
		d.logger.Error("Daily reset failed", zap.Error(err))
		return
	}
	d.logger.Info("Daily reset completed",
		zap.Int64("accounts", affected),
		zap.Duration("duration", time.Since(start)))
}
