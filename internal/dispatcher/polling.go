package dispatcher

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Poller выполняет один запрос getUpdates
type Poller interface {
	GetUpdates(ctx context.Context, cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// PollingOptions настраивает цикл long polling
type PollingOptions struct {
	Timeout        int // секунды
	Limit          int
	AllowedUpdates []string
}

// DefaultPollingOptions возвращает настройки по умолчанию
func DefaultPollingOptions() PollingOptions {
	return PollingOptions{
		Timeout:        60,
		Limit:          100,
		AllowedUpdates: []string{"message", "callback_query"},
	}
}

// StartPolling получает обновления до отмены контекста.
// Ошибка запроса getUpdates завершает цикл и возвращается вызывающему.
func (d *Dispatcher) StartPolling(ctx context.Context, poller Poller, opts PollingOptions) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = opts.Timeout
	cfg.Limit = opts.Limit
	cfg.AllowedUpdates = opts.AllowedUpdates

	d.logger.Info("Start polling", zap.Int("timeout", opts.Timeout))

	for {
		if ctx.Err() != nil {
			d.logger.Info("Polling stopped")
			return nil
		}

		updates, err := poller.GetUpdates(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("Polling stopped")
				return nil
			}
			return fmt.Errorf("failed to get updates: %w", err)
		}

		for _, update := range updates {
			if update.UpdateID >= cfg.Offset {
				cfg.Offset = update.UpdateID + 1
			}

			if err := d.FeedUpdate(ctx, update); err != nil && !errors.Is(err, ErrNoHandler) {
				d.logger.Error("Failed to handle update",
					zap.Int("update_id", update.UpdateID),
					zap.Error(err))
			}
		}
	}
}
