// Package middleware содержит middleware для rate limiting.
package middleware

import (
	"context"
	"sync"
	"time"

	"genbot/internal/dispatcher"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов каждого пользователя
type RateLimiter struct {
	mu      sync.Mutex
	users   map[int64]*limiterEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	logger  *zap.Logger
}

// NewRateLimiter создает новый rate limiter; rps <= 0 отключает ограничение
func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		users:   make(map[int64]*limiterEntry),
		limit:   limit,
		burst:   burst,
		idleTTL: 10 * time.Minute,
		logger:  logger,
	}
}

// Allow проверяет, разрешен ли запрос пользователя
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	entry, ok := rl.users[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.users[userID] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Cleanup удаляет лимитеры неактивных пользователей
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idleTTL)
	for userID, entry := range rl.users {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.users, userID)
		}
	}
}

// RateLimit пропускает обновления пользователя не чаще настроенного лимита
func RateLimit(rl *RateLimiter, logger *zap.Logger) dispatcher.Middleware {
	return func(next dispatcher.HandlerFunc) dispatcher.HandlerFunc {
		return func(ctx context.Context, req *dispatcher.Request) error {
			user := sender(req.Update)
			if user == nil {
				return next(ctx, req)
			}
			if !rl.Allow(user.ID) {
				logger.Warn("Rate limit exceeded", zap.Int64("user_id", user.ID))
				return nil
			}
			return next(ctx, req)
		}
	}
}
