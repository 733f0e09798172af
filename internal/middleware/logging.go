// Package middleware содержит middleware для логирования запросов.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genbot/internal/dispatcher"

	"go.uber.org/zap"
)

// Logging логирует входящие обновления и время их обработки
func Logging(logger *zap.Logger) dispatcher.Middleware {
	return func(next dispatcher.HandlerFunc) dispatcher.HandlerFunc {
		return func(ctx context.Context, req *dispatcher.Request) error {
			start := time.Now()
			requestID := fmt.Sprintf("%d-%d", req.Update.UpdateID, start.UnixNano())
			cmd := command(req.Update)

			logger.Info("Processing update",
				zap.String("request_id", requestID),
				zap.String("command", cmd),
				zap.String("user", getUserIdentifier(sender(req.Update))),
				zap.Int("update_id", req.Update.UpdateID))

			err := next(ctx, req)

			duration := time.Since(start)
			switch {
			case err == nil:
				logger.Info("Update processed",
					zap.String("request_id", requestID),
					zap.String("command", cmd),
					zap.Duration("duration", duration))
			case errors.Is(err, dispatcher.ErrNoHandler):
				logger.Debug("Update skipped",
					zap.String("request_id", requestID),
					zap.String("command", cmd))
			default:
				logger.Error("Update processed with error",
					zap.String("request_id", requestID),
					zap.String("command", cmd),
					zap.Duration("duration", duration),
					zap.Error(err))
			}
			return err
		}
	}
}
