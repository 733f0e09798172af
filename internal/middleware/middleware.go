// Package middleware содержит middleware компоненты.
package middleware

import (
	"context"
	"fmt"
	"time"

	"genbot/internal/dispatcher"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Config представляет настройки стандартной цепочки
type Config struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	DebounceInterval time.Duration
}

// Middleware хранит состояние стандартной цепочки middleware
type Middleware struct {
	rateLimiter *RateLimiter
	debouncer   *Debouncer
	logger      *zap.Logger
}

// New создает middleware
func New(cfg Config, logger *zap.Logger) *Middleware {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = time.Second
	}
	return &Middleware{
		rateLimiter: NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		debouncer:   NewDebouncer(cfg.DebounceInterval, logger),
		logger:      logger,
	}
}

// Chain возвращает цепочку: recovery, logging, debounce, rate limit
func (m *Middleware) Chain() []dispatcher.Middleware {
	return []dispatcher.Middleware{
		Recovery(m.logger),
		Logging(m.logger),
		Debounce(m.debouncer, m.logger),
		RateLimit(m.rateLimiter, m.logger),
	}
}

// Cleanup очищает устаревшие записи
func (m *Middleware) Cleanup() {
	m.rateLimiter.Cleanup()
	m.debouncer.Cleanup()
}

// RunCleanup периодически вызывает Cleanup до отмены контекста
func (m *Middleware) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-ctx.Done():
			m.logger.Debug("Middleware cleanup stopped by context")
			return
		}
	}
}

// getUserIdentifier возвращает идентификатор пользователя
func getUserIdentifier(user *tgbotapi.User) string {
	if user == nil {
		return "unknown"
	}

	if user.UserName != "" {
		return "@" + user.UserName
	}

	if user.FirstName != "" {
		if user.LastName != "" {
			return user.FirstName + " " + user.LastName
		}
		return user.FirstName
	}

	return fmt.Sprintf("user_%d", user.ID)
}

// sender возвращает автора обновления
func sender(update tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	}
	return nil
}

// command возвращает команду или тип обновления для логов
func command(update tgbotapi.Update) string {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		return update.Message.Command()
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback"
	}
	return "unknown"
}
