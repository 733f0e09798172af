package fsm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisStorage(t *testing.T, opts ...RedisOption) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorage(client, zap.NewNop(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

// storageContract проверяет поведение, общее для всех реализаций
func storageContract(t *testing.T, s Storage) {
	ctx := context.Background()
	key := Key{BotID: 1, ChatID: 10, UserID: 20}
	other := Key{BotID: 1, ChatID: 10, UserID: 21}

	state, err := s.GetState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, State(""), state)

	require.NoError(t, s.SetState(ctx, key, "buy:confirm"))
	state, err = s.GetState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, State("buy:confirm"), state)

	state, err = s.GetState(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, State(""), state, "keys must be isolated")

	require.NoError(t, s.SetData(ctx, key, map[string]string{"package": "50"}))
	data, err := s.GetData(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"package": "50"}, data)

	fc := NewContext(s, key)
	require.NoError(t, fc.UpdateData(ctx, map[string]string{"price": "199"}))
	data, err = fc.Data(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"package": "50", "price": "199"}, data)

	require.NoError(t, fc.Clear(ctx))
	state, err = fc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, State(""), state)
	data, err = fc.Data(ctx)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMemoryStorage(t *testing.T) {
	storageContract(t, NewMemoryStorage())
}

func TestRedisStorage(t *testing.T) {
	s, _ := newRedisStorage(t)
	storageContract(t, s)
}

func TestRedisStorage_KeyLayout(t *testing.T) {
	s, mr := newRedisStorage(t)
	ctx := context.Background()
	key := Key{BotID: 7, ChatID: 100, UserID: 200}

	require.NoError(t, s.SetState(ctx, key, "buy:confirm"))
	require.NoError(t, s.SetData(ctx, key, map[string]string{"package": "10"}))

	got, err := mr.Get("fsm:7:100:200:state")
	require.NoError(t, err)
	assert.Equal(t, "buy:confirm", got)
	assert.Equal(t, "10", mr.HGet("fsm:7:100:200:data", "package"))

	require.NoError(t, s.SetState(ctx, key, ""))
	assert.False(t, mr.Exists("fsm:7:100:200:state"))
}

func TestRedisStorage_TTL(t *testing.T) {
	s, mr := newRedisStorage(t, WithTTL(time.Minute), WithPrefix("bot"))
	ctx := context.Background()
	key := Key{BotID: 1, ChatID: 2, UserID: 3}

	require.NoError(t, s.SetState(ctx, key, "waiting"))
	require.NoError(t, s.SetData(ctx, key, map[string]string{"a": "b"}))

	assert.Equal(t, time.Minute, mr.TTL("bot:1:2:3:state"))
	assert.Equal(t, time.Minute, mr.TTL("bot:1:2:3:data"))

	mr.FastForward(2 * time.Minute)
	state, err := s.GetState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, State(""), state)
}

func TestRedisStorage_Ping(t *testing.T) {
	s, mr := newRedisStorage(t)
	assert.NoError(t, s.Ping(context.Background()))

	mr.SetError("LOADING")
	assert.Error(t, s.Ping(context.Background()))
	mr.SetError("")
}

func TestNewRedisStorageFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStorageFromURL(context.Background(), "redis://"+mr.Addr()+"/0", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.Ping(context.Background()))

	_, err = NewRedisStorageFromURL(context.Background(), "not a url", zap.NewNop())
	assert.Error(t, err)
}
