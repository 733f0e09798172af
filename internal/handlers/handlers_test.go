package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"

	"genbot/internal/commands"
	"genbot/internal/dispatcher"
	"genbot/internal/fsm"
	"genbot/internal/storage/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type env struct {
	sender   *fakeSender
	storage  *fsm.MemoryStorage
	accounts *repository.MemoryAccountRepository
	disp     *dispatcher.Dispatcher
}

func newEnv() *env {
	e := &env{
		sender:   &fakeSender{},
		storage:  fsm.NewMemoryStorage(),
		accounts: repository.NewMemoryAccountRepository(),
	}
	h := New(e.accounts, commands.Default(), DefaultPackages(), 3, zap.NewNop())
	e.disp = dispatcher.New(e.sender, e.storage, 1, zap.NewNop())
	e.disp.Include(h.Router())
	return e
}

func command(userID int64, name string) tgbotapi.Update {
	text := "/" + name
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: userID, FirstName: "Ann", UserName: "ann"},
			Chat:     &tgbotapi.Chat{ID: userID},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	}
}

func callback(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func TestStart_CreatesAccountAndClearsState(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	key := fsm.Key{BotID: 1, ChatID: 42, UserID: 42}
	require.NoError(t, e.storage.SetState(ctx, key, StateBuyConfirm))

	require.NoError(t, e.disp.FeedUpdate(ctx, command(42, "start")))

	account, err := e.accounts.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, account.Generations)
	assert.Equal(t, "ann", account.Username)

	state, err := e.storage.GetState(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, state)

	msg := e.sender.last(t)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "<b>Ann</b>")
}

func TestHelp_ListsCommandsInOrder(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.disp.FeedUpdate(context.Background(), command(7, "help")))

	text := e.sender.last(t).Text
	prev := -1
	for _, c := range commands.Default() {
		idx := strings.Index(text, "/"+c.Name+" - "+c.Description)
		require.GreaterOrEqual(t, idx, 0, c.Name)
		assert.Greater(t, idx, prev)
		prev = idx
	}
}

func TestAccount_ShowsBalance(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.disp.FeedUpdate(context.Background(), command(5, "account")))

	text := e.sender.last(t).Text
	assert.Contains(t, text, "<code>5</code>")
	assert.Contains(t, text, "3 из 3")
	assert.Contains(t, text, "Купленных генераций: 0")
}

func TestBuy_SendsPackagesKeyboard(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.disp.FeedUpdate(context.Background(), command(5, "buy")))

	markup, ok := e.sender.last(t).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, len(DefaultPackages()))
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "buy:10", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestBuyCallback_StoresPackage(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.disp.FeedUpdate(ctx, callback(9, "buy:50")))

	key := fsm.Key{BotID: 1, ChatID: 9, UserID: 9}
	state, err := e.storage.GetState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, StateBuyConfirm, state)

	data, err := e.storage.GetData(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"generations": "50", "price": "399"}, data)

	require.Len(t, e.sender.requests, 1)
	cb, ok := e.sender.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", cb.CallbackQueryID)
	assert.Contains(t, e.sender.last(t).Text, "50 генераций")
}

func TestBuyCallback_UnknownPackage(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	require.NoError(t, e.disp.FeedUpdate(ctx, callback(9, "buy:13")))

	state, err := e.storage.GetState(ctx, fsm.Key{BotID: 1, ChatID: 9, UserID: 9})
	require.NoError(t, err)
	assert.Empty(t, state)
	require.Len(t, e.sender.requests, 1)
	assert.Empty(t, e.sender.sent)
}
