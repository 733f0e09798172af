// Package handlers содержит обработчики пользовательских команд.
package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"genbot/internal/dispatcher"

	"go.uber.org/zap"
)

// Start обрабатывает команду /start
func (h *Handlers) Start(ctx context.Context, req *dispatcher.Request) error {
	message := req.Update.Message

	account, err := h.ensureAccount(ctx, message.From)
	if err != nil {
		return err
	}

	if err := req.State.Clear(ctx); err != nil {
		h.logger.Warn("Failed to clear state", zap.Error(err))
	}

	name := message.From.FirstName
	if name == "" {
		name = message.From.UserName
	}

	text := fmt.Sprintf("Привет, <b>%s</b>!\n\nДоступно генераций: %d.\nСписок команд: /help",
		html.EscapeString(name), account.Total())
	return sendHTML(req, message.Chat.ID, text, nil)
}

// Help обрабатывает команду /help
func (h *Handlers) Help(ctx context.Context, req *dispatcher.Request) error {
	var b strings.Builder
	b.WriteString("Доступные команды:\n\n")
	for _, c := range h.commands {
		fmt.Fprintf(&b, "/%s - %s\n", c.Name, html.EscapeString(c.Description))
	}
	return sendHTML(req, req.Update.Message.Chat.ID, b.String(), nil)
}

// Account обрабатывает команду /account
func (h *Handlers) Account(ctx context.Context, req *dispatcher.Request) error {
	message := req.Update.Message

	account, err := h.ensureAccount(ctx, message.From)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("<b>Личный кабинет</b>\n\n"+
		"ID: <code>%d</code>\n"+
		"Бесплатных генераций сегодня: %d из %d\n"+
		"Купленных генераций: %d\n\n"+
		"Купить генерации: /buy",
		account.UserID, account.Generations, h.dailyGenerations, account.PurchasedGenerations)
	return sendHTML(req, message.Chat.ID, text, nil)
}
