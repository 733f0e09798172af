package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"genbot/internal/dispatcher"
	"genbot/internal/fsm"
	"genbot/internal/keyboard"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const buyCallbackPrefix = "buy:"

// StateBuyConfirm состояние после выбора пакета
const StateBuyConfirm fsm.State = "buy:confirm"

// Buy обрабатывает команду /buy
func (h *Handlers) Buy(ctx context.Context, req *dispatcher.Request) error {
	buttons := make([]keyboard.Button, 0, len(h.packages))
	for _, p := range h.packages {
		buttons = append(buttons, keyboard.Button{
			Text: fmt.Sprintf("%d генераций - %d ₽", p.Generations, p.Price),
			Data: buyCallbackPrefix + strconv.Itoa(p.Generations),
		})
	}

	return sendHTML(req, req.Update.Message.Chat.ID, "Выберите пакет генераций:",
		keyboard.Grid(buttons, 1))
}

// BuyCallback обрабатывает выбор пакета
func (h *Handlers) BuyCallback(ctx context.Context, req *dispatcher.Request) error {
	query := req.Update.CallbackQuery

	pkg, ok := h.findPackage(strings.TrimPrefix(query.Data, buyCallbackPrefix))
	if !ok {
		h.logger.Warn("Unknown package selected", zap.String("data", query.Data))
		return answer(req, query.ID, "Пакет не найден")
	}

	if err := req.State.UpdateData(ctx, map[string]string{
		"generations": strconv.Itoa(pkg.Generations),
		"price":       strconv.Itoa(pkg.Price),
	}); err != nil {
		return fmt.Errorf("failed to save package: %w", err)
	}
	if err := req.State.SetState(ctx, StateBuyConfirm); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	if err := answer(req, query.ID, ""); err != nil {
		return err
	}

	if query.Message == nil || query.Message.Chat == nil {
		return nil
	}
	text := fmt.Sprintf("Вы выбрали <b>%d генераций</b> за %d ₽.\nСсылка на оплату придет следующим сообщением.",
		pkg.Generations, pkg.Price)
	return sendHTML(req, query.Message.Chat.ID, text, nil)
}

func (h *Handlers) findPackage(raw string) (Package, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Package{}, false
	}
	for _, p := range h.packages {
		if p.Generations == n {
			return p, true
		}
	}
	return Package{}, false
}

func answer(req *dispatcher.Request, callbackID, text string) error {
	if _, err := req.Bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}
