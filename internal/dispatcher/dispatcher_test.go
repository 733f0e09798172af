package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"genbot/internal/fsm"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func commandUpdate(id int, chatID, userID int64, command string) tgbotapi.Update {
	text := "/" + command
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	}
}

func textUpdate(id int, chatID, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func callbackUpdate(id int, chatID, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
			Data:    data,
		},
	}
}

func newTestDispatcher() *Dispatcher {
	return New(nil, fsm.NewMemoryStorage(), 1, zap.NewNop())
}

func TestDispatcher_RoutesCommands(t *testing.T) {
	d := newTestDispatcher()
	r := NewRouter("main")

	var got []string
	r.Command("start", func(ctx context.Context, req *Request) error {
		got = append(got, "start")
		return nil
	})
	r.Command("help", func(ctx context.Context, req *Request) error {
		got = append(got, "help")
		return nil
	})
	d.Include(r)

	require.NoError(t, d.FeedUpdate(context.Background(), commandUpdate(1, 10, 20, "start")))
	require.NoError(t, d.FeedUpdate(context.Background(), commandUpdate(2, 10, 20, "HELP")))
	assert.ErrorIs(t, d.FeedUpdate(context.Background(), commandUpdate(3, 10, 20, "unknown")), ErrNoHandler)

	assert.Equal(t, []string{"start", "help"}, got)
}

func TestDispatcher_RoutesCallbacksByPrefix(t *testing.T) {
	d := newTestDispatcher()
	r := NewRouter("main")

	var data string
	r.Callback("buy:", func(ctx context.Context, req *Request) error {
		data = req.Update.CallbackQuery.Data
		return nil
	})
	d.Include(r)

	require.NoError(t, d.FeedUpdate(context.Background(), callbackUpdate(1, 10, 20, "buy:50")))
	assert.Equal(t, "buy:50", data)
	assert.ErrorIs(t, d.FeedUpdate(context.Background(), callbackUpdate(2, 10, 20, "other")), ErrNoHandler)
}

func TestDispatcher_RoutesByState(t *testing.T) {
	d := newTestDispatcher()
	r := NewRouter("main")

	var handled int
	r.State("waiting", func(ctx context.Context, req *Request) error {
		handled++
		assert.Equal(t, fsm.Key{BotID: 1, ChatID: 10, UserID: 20}, req.State.Key())
		return nil
	})
	r.Command("wait", func(ctx context.Context, req *Request) error {
		return req.State.SetState(ctx, "waiting")
	})
	d.Include(r)

	ctx := context.Background()
	assert.ErrorIs(t, d.FeedUpdate(ctx, textUpdate(1, 10, 20, "hello")), ErrNoHandler)

	require.NoError(t, d.FeedUpdate(ctx, commandUpdate(2, 10, 20, "wait")))
	require.NoError(t, d.FeedUpdate(ctx, textUpdate(3, 10, 20, "hello")))
	assert.ErrorIs(t, d.FeedUpdate(ctx, textUpdate(4, 10, 21, "hello")), ErrNoHandler, "state is per user")

	assert.Equal(t, 1, handled)
}

func TestDispatcher_RouterPriority(t *testing.T) {
	d := newTestDispatcher()
	first, second := NewRouter("first"), NewRouter("second")

	var who string
	first.Command("start", func(ctx context.Context, req *Request) error { who = "first"; return nil })
	second.Command("start", func(ctx context.Context, req *Request) error { who = "second"; return nil })
	d.Include(first, second)

	require.NoError(t, d.FeedUpdate(context.Background(), commandUpdate(1, 1, 1, "start")))
	assert.Equal(t, "first", who)
}

func TestDispatcher_OuterMiddlewareOrder(t *testing.T) {
	d := newTestDispatcher()
	r := NewRouter("main")

	var trace []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *Request) error {
				trace = append(trace, name+":before")
				err := next(ctx, req)
				trace = append(trace, name+":after")
				return err
			}
		}
	}
	r.Command("start", func(ctx context.Context, req *Request) error {
		trace = append(trace, "handler")
		return nil
	})
	d.Include(r)
	d.UseOuter(mw("a"), mw("b"))

	require.NoError(t, d.FeedUpdate(context.Background(), commandUpdate(1, 1, 1, "start")))
	assert.Equal(t, []string{"a:before", "b:before", "handler", "b:after", "a:after"}, trace)
}

func TestDispatcher_OuterMiddlewareCanStopUpdate(t *testing.T) {
	d := newTestDispatcher()
	r := NewRouter("main")

	called := false
	r.Command("start", func(ctx context.Context, req *Request) error { called = true; return nil })
	d.Include(r)
	d.UseOuter(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error { return nil }
	})

	require.NoError(t, d.FeedUpdate(context.Background(), commandUpdate(1, 1, 1, "start")))
	assert.False(t, called)
}

func TestDispatcher_StartupHooks(t *testing.T) {
	d := newTestDispatcher()

	var calls []int
	d.OnStartup(func(ctx context.Context) error { calls = append(calls, 1); return nil })
	d.OnStartup(func(ctx context.Context) error { calls = append(calls, 2); return errors.New("boom") })
	d.OnStartup(func(ctx context.Context) error { calls = append(calls, 3); return nil })

	err := d.EmitStartup(context.Background())
	assert.EqualError(t, err, "startup hook 1: boom")
	assert.Equal(t, []int{1, 2}, calls)
}

func TestDispatcher_ShutdownHooksAllRun(t *testing.T) {
	d := newTestDispatcher()

	var mu sync.Mutex
	var calls []int
	record := func(i int, err error) Hook {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, i)
			return err
		}
	}
	d.OnShutdown(record(1, errors.New("delete webhook failed")))
	d.OnShutdown(record(2, nil))

	d.EmitShutdown(context.Background())
	assert.Equal(t, []int{1, 2}, calls)
}
