// Package dispatcher доставляет обновления Telegram до обработчиков.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"genbot/internal/external/telegram"
	"genbot/internal/fsm"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrNoHandler возвращается, когда ни один роутер не принял обновление
var ErrNoHandler = errors.New("no handler for update")

// Hook вызывается при запуске или остановке приложения
type Hook func(ctx context.Context) error

// Dispatcher хранит роутеры, middleware и хуки жизненного цикла
type Dispatcher struct {
	mu       sync.RWMutex
	routers  []*Router
	outer    []Middleware
	startup  []Hook
	shutdown []Hook

	sender  telegram.Sender
	storage fsm.Storage
	botID   int64
	logger  *zap.Logger
}

// New создает диспетчер
func New(sender telegram.Sender, storage fsm.Storage, botID int64, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		storage: storage,
		botID:   botID,
		logger:  logger,
	}
}

// Include добавляет роутеры; порядок определяет приоритет
func (d *Dispatcher) Include(routers ...*Router) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routers = append(d.routers, routers...)
	for _, r := range routers {
		d.logger.Debug("Router included", zap.String("router", r.Name()))
	}
}

// UseOuter регистрирует middleware, которые видят каждое обновление
func (d *Dispatcher) UseOuter(mws ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outer = append(d.outer, mws...)
}

// OnStartup регистрирует хук запуска
func (d *Dispatcher) OnStartup(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.startup = append(d.startup, h)
}

// OnShutdown регистрирует хук остановки
func (d *Dispatcher) OnShutdown(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdown = append(d.shutdown, h)
}

// EmitStartup выполняет хуки запуска по порядку; первая ошибка прерывает запуск
func (d *Dispatcher) EmitStartup(ctx context.Context) error {
	d.mu.RLock()
	hooks := append([]Hook(nil), d.startup...)
	d.mu.RUnlock()

	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("startup hook %d: %w", i, err)
		}
	}
	return nil
}

// EmitShutdown выполняет все хуки остановки; ошибки только логируются
func (d *Dispatcher) EmitShutdown(ctx context.Context) {
	d.mu.RLock()
	hooks := append([]Hook(nil), d.shutdown...)
	d.mu.RUnlock()

	for i, h := range hooks {
		if err := h(ctx); err != nil {
			d.logger.Warn("Shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
	}
}

// FeedUpdate прогоняет обновление через middleware и подходящий обработчик
func (d *Dispatcher) FeedUpdate(ctx context.Context, update tgbotapi.Update) error {
	d.mu.RLock()
	outer := append([]Middleware(nil), d.outer...)
	d.mu.RUnlock()

	req := &Request{
		Update: update,
		Bot:    d.sender,
		State:  fsm.NewContext(d.storage, d.keyFor(update)),
		Logger: d.logger.With(zap.Int("update_id", update.UpdateID)),
	}

	return Chain(d.route, outer...)(ctx, req)
}

func (d *Dispatcher) route(ctx context.Context, req *Request) error {
	var state fsm.State
	if req.Update.Message != nil && !req.Update.Message.IsCommand() {
		s, err := req.State.State(ctx)
		if err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}
		state = s
	}

	d.mu.RLock()
	routers := d.routers
	d.mu.RUnlock()

	for _, r := range routers {
		if h, ok := r.match(req.Update, state); ok {
			return h(ctx, req)
		}
	}

	req.Logger.Debug("Update not handled")
	return ErrNoHandler
}

func (d *Dispatcher) keyFor(update tgbotapi.Update) fsm.Key {
	key := fsm.Key{BotID: d.botID}
	switch {
	case update.Message != nil:
		if update.Message.Chat != nil {
			key.ChatID = update.Message.Chat.ID
		}
		if update.Message.From != nil {
			key.UserID = update.Message.From.ID
		}
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			key.ChatID = update.CallbackQuery.Message.Chat.ID
		}
		if update.CallbackQuery.From != nil {
			key.UserID = update.CallbackQuery.From.ID
		}
	}
	if key.ChatID == 0 {
		key.ChatID = key.UserID
	}
	return key
}
