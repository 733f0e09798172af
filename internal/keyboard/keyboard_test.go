package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	buttons := []Button{{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}, {"e", "5"}}

	markup := Grid(buttons, 2)
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Len(t, markup.InlineKeyboard[2], 1)
	assert.Equal(t, "e", markup.InlineKeyboard[2][0].Text)
	require.NotNil(t, markup.InlineKeyboard[2][0].CallbackData)
	assert.Equal(t, "5", *markup.InlineKeyboard[2][0].CallbackData)
}

func TestGrid_OnePerRowByDefault(t *testing.T) {
	markup := Grid([]Button{{"a", "1"}, {"b", "2"}}, 0)
	assert.Len(t, markup.InlineKeyboard, 2)
}
