// Package commands содержит список команд бота, который публикуется в Telegram.
package commands

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command представляет команду бота и ее описание
type Command struct {
	Name        string
	Description string
}

// Имена команд
const (
	Start   = "start"
	Help    = "help"
	Buy     = "buy"
	Account = "account"
)

var registry = []Command{
	{Name: Start, Description: "Начать"},
	{Name: Help, Description: "Помощь"},
	{Name: Buy, Description: "Купить генерации"},
	{Name: Account, Description: "Личный кабинет"},
}

// Default возвращает копию списка команд в порядке публикации
func Default() []Command {
	out := make([]Command, len(registry))
	copy(out, registry)
	return out
}

// BotCommands преобразует команды в формат Bot API
func BotCommands(cmds []Command) []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	return out
}
