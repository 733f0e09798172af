// Package middleware содержит middleware для debounce.
package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"genbot/internal/dispatcher"

	"go.uber.org/zap"
)

// Debouncer предотвращает двойные нажатия на inline-кнопки
type Debouncer struct {
	requests map[string]time.Time
	mu       sync.Mutex
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDebouncer создает новый debouncer
func NewDebouncer(timeout time.Duration, logger *zap.Logger) *Debouncer {
	return &Debouncer{
		requests: make(map[string]time.Time),
		timeout:  timeout,
		logger:   logger,
	}
}

// CanProcessRequest проверяет, можно ли обработать запрос с ключом key
func (d *Debouncer) CanProcessRequest(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	lastRequest, exists := d.requests[key]

	if !exists || now.Sub(lastRequest) > d.timeout {
		d.requests[key] = now
		return true
	}

	return false
}

// Cleanup очищает устаревшие записи
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for key, lastRequest := range d.requests {
		if now.Sub(lastRequest) > d.timeout {
			delete(d.requests, key)
		}
	}
}

// Debounce отбрасывает повторные callback query с теми же данными от того же пользователя
func Debounce(d *Debouncer, logger *zap.Logger) dispatcher.Middleware {
	return func(next dispatcher.HandlerFunc) dispatcher.HandlerFunc {
		return func(ctx context.Context, req *dispatcher.Request) error {
			query := req.Update.CallbackQuery
			if query == nil || query.From == nil {
				return next(ctx, req)
			}

			key := fmt.Sprintf("%d:%s", query.From.ID, query.Data)
			if !d.CanProcessRequest(key) {
				logger.Debug("Callback debounced",
					zap.Int64("user_id", query.From.ID),
					zap.String("data", query.Data))
				return nil
			}
			return next(ctx, req)
		}
	}
}
