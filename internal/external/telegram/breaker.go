package telegram

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig представляет настройки circuit breaker для Bot API
type BreakerConfig struct {
	MaxRequests  uint32        // запросов в полуоткрытом состоянии
	Interval     time.Duration // окно подсчета ошибок
	Timeout      time.Duration // время до перехода в полуоткрытое состояние
	Threshold    uint32        // подряд идущих ошибок до размыкания
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig возвращает настройки по умолчанию
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  5,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		Threshold:    5,
		FailureRatio: 0.5,
		MinRequests:  10,
	}
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[*tgbotapi.APIResponse] {
	return gobreaker.NewCircuitBreaker[*tgbotapi.APIResponse](gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.Threshold {
				return true
			}
			if counts.Requests >= cfg.MinRequests {
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
			}
			return false
		},
		// Ответ Bot API с ok=false - ошибка запроса, а не недоступность сервиса
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *tgbotapi.Error
			return errors.As(err, &apiErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}
