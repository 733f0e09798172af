// Package middleware содержит middleware для recovery и обработки ошибок.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"genbot/internal/dispatcher"

	"go.uber.org/zap"
)

// Recovery перехватывает панику обработчика и превращает ее в ошибку
func Recovery(logger *zap.Logger) dispatcher.Middleware {
	return func(next dispatcher.HandlerFunc) dispatcher.HandlerFunc {
		return func(ctx context.Context, req *dispatcher.Request) (err error) {
			defer func() {
				if panicErr := recover(); panicErr != nil {
					logger.Error("Panic recovered in recovery middleware",
						zap.String("command", command(req.Update)),
						zap.String("user", getUserIdentifier(sender(req.Update))),
						zap.Int("update_id", req.Update.UpdateID),
						zap.Any("panic", panicErr),
						zap.String("stack", string(debug.Stack())))
					err = fmt.Errorf("handler panic: %v", panicErr)
				}
			}()
			return next(ctx, req)
		}
	}
}
