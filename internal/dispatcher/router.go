package dispatcher

import (
	"context"
	"strings"

	"genbot/internal/external/telegram"
	"genbot/internal/fsm"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Request передается обработчику вместе с контекстом
type Request struct {
	Update tgbotapi.Update
	Bot    telegram.Sender
	State  *fsm.Context
	Logger *zap.Logger
}

// HandlerFunc обрабатывает одно обновление
type HandlerFunc func(ctx context.Context, req *Request) error

// Middleware оборачивает обработчик
type Middleware func(next HandlerFunc) HandlerFunc

// Chain применяет middleware так, что первый в списке выполняется первым
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type callbackRoute struct {
	prefix  string
	handler HandlerFunc
}

// Router сопоставляет обновления обработчикам
type Router struct {
	name      string
	commands  map[string]HandlerFunc
	callbacks []callbackRoute
	states    map[fsm.State]HandlerFunc
}

// NewRouter создает именованный роутер
func NewRouter(name string) *Router {
	return &Router{
		name:     name,
		commands: make(map[string]HandlerFunc),
		states:   make(map[fsm.State]HandlerFunc),
	}
}

// Name возвращает имя роутера
func (r *Router) Name() string {
	return r.name
}

// Command регистрирует обработчик команды без ведущего "/"
func (r *Router) Command(name string, h HandlerFunc) {
	r.commands[strings.ToLower(name)] = h
}

// Callback регистрирует обработчик callback query по префиксу данных
func (r *Router) Callback(prefix string, h HandlerFunc) {
	r.callbacks = append(r.callbacks, callbackRoute{prefix: prefix, handler: h})
}

// State регистрирует обработчик текстовых сообщений в состоянии state
func (r *Router) State(state fsm.State, h HandlerFunc) {
	r.states[state] = h
}

// match ищет обработчик для обновления
func (r *Router) match(update tgbotapi.Update, state fsm.State) (HandlerFunc, bool) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		h, ok := r.commands[strings.ToLower(update.Message.Command())]
		return h, ok
	case update.Message != nil:
		if state == "" {
			return nil, false
		}
		h, ok := r.states[state]
		return h, ok
	case update.CallbackQuery != nil:
		for _, route := range r.callbacks {
			if strings.HasPrefix(update.CallbackQuery.Data, route.prefix) {
				return route.handler, true
			}
		}
	}
	return nil, false
}
