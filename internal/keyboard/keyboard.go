// Package keyboard собирает inline-клавиатуры.
package keyboard

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button кнопка с callback-данными
type Button struct {
	Text string
	Data string
}

// Grid раскладывает кнопки по строкам не более чем по perRow штук
func Grid(buttons []Button, perRow int) tgbotapi.InlineKeyboardMarkup {
	if perRow <= 0 {
		perRow = 1
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += perRow {
		var row []tgbotapi.InlineKeyboardButton
		for j := 0; j < perRow && i+j < len(buttons); j++ {
			b := buttons[i+j]
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
