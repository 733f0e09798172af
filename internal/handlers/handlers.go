// Package handlers содержит обработчики команд.
package handlers

import (
	"context"
	"fmt"

	"genbot/internal/commands"
	"genbot/internal/dispatcher"
	"genbot/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Package представляет пакет генераций для покупки
type Package struct {
	Generations int
	Price       int // рубли
}

// DefaultPackages возвращает пакеты по умолчанию
func DefaultPackages() []Package {
	return []Package{
		{Generations: 10, Price: 99},
		{Generations: 50, Price: 399},
		{Generations: 100, Price: 699},
	}
}

// Handlers содержит все обработчики команд
type Handlers struct {
	accounts         model.AccountRepository
	commands         []commands.Command
	packages         []Package
	dailyGenerations int
	logger           *zap.Logger
}

// New создает новый экземпляр обработчиков
func New(accounts model.AccountRepository, cmds []commands.Command, packages []Package, dailyGenerations int, logger *zap.Logger) *Handlers {
	return &Handlers{
		accounts:         accounts,
		commands:         cmds,
		packages:         packages,
		dailyGenerations: dailyGenerations,
		logger:           logger,
	}
}

// Router возвращает роутер со всеми командами бота
func (h *Handlers) Router() *dispatcher.Router {
	r := dispatcher.NewRouter("main")
	r.Command(commands.Start, h.Start)
	r.Command(commands.Help, h.Help)
	r.Command(commands.Account, h.Account)
	r.Command(commands.Buy, h.Buy)
	r.Callback(buyCallbackPrefix, h.BuyCallback)
	return r
}

// sendHTML отправляет сообщение в HTML-разметке
func sendHTML(req *dispatcher.Request, chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := req.Bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// ensureAccount возвращает аккаунт автора сообщения, создавая его при необходимости
func (h *Handlers) ensureAccount(ctx context.Context, user *tgbotapi.User) (*model.Account, error) {
	if user == nil {
		return nil, fmt.Errorf("update has no sender")
	}
	account, err := h.accounts.Ensure(ctx, user.ID, user.UserName, h.dailyGenerations)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	return account, nil
}
