// Package fsm хранит состояние диалога пользователя с ботом.
package fsm

import (
	"context"
	"fmt"
)

// State состояние диалога; пустая строка означает отсутствие состояния
type State string

// Key адресует состояние пользователя в конкретном чате
type Key struct {
	BotID  int64
	ChatID int64
	UserID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%d", k.BotID, k.ChatID, k.UserID)
}

// Storage определяет хранилище состояний
type Storage interface {
	GetState(ctx context.Context, key Key) (State, error)
	SetState(ctx context.Context, key Key, state State) error
	GetData(ctx context.Context, key Key) (map[string]string, error)
	SetData(ctx context.Context, key Key, data map[string]string) error
	Close() error
}

// Context привязывает хранилище к одному ключу
type Context struct {
	storage Storage
	key     Key
}

// NewContext создает контекст состояния для ключа
func NewContext(storage Storage, key Key) *Context {
	return &Context{storage: storage, key: key}
}

// Key возвращает ключ контекста
func (c *Context) Key() Key {
	return c.key
}

// State возвращает текущее состояние
func (c *Context) State(ctx context.Context) (State, error) {
	return c.storage.GetState(ctx, c.key)
}

// SetState устанавливает состояние
func (c *Context) SetState(ctx context.Context, state State) error {
	return c.storage.SetState(ctx, c.key, state)
}

// Data возвращает данные состояния
func (c *Context) Data(ctx context.Context) (map[string]string, error) {
	return c.storage.GetData(ctx, c.key)
}

// UpdateData дописывает значения в данные состояния
func (c *Context) UpdateData(ctx context.Context, values map[string]string) error {
	data, err := c.storage.GetData(ctx, c.key)
	if err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]string, len(values))
	}
	for k, v := range values {
		data[k] = v
	}
	return c.storage.SetData(ctx, c.key, data)
}

// Clear сбрасывает состояние и данные
func (c *Context) Clear(ctx context.Context) error {
	if err := c.storage.SetState(ctx, c.key, ""); err != nil {
		return err
	}
	return c.storage.SetData(ctx, c.key, nil)
}
