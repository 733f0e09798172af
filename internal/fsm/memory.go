package fsm

import (
	"context"
	"sync"
)

// MemoryStorage хранит состояния в памяти процесса
type MemoryStorage struct {
	mu     sync.RWMutex
	states map[Key]State
	data   map[Key]map[string]string
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage создает хранилище в памяти
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[Key]State),
		data:   make(map[Key]map[string]string),
	}
}

func (m *MemoryStorage) GetState(_ context.Context, key Key) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[key], nil
}

func (m *MemoryStorage) SetState(_ context.Context, key Key, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state == "" {
		delete(m.states, key)
		return nil
	}
	m.states[key] = state
	return nil
}

func (m *MemoryStorage) GetData(_ context.Context, key Key) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.data[key]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStorage) SetData(_ context.Context, key Key, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(data) == 0 {
		delete(m.data, key)
		return nil
	}
	cp := make(map[string]string, len(data))
	for k, v := range data {
		cp[k] = v
	}
	m.data[key] = cp
	return nil
}

// Ping всегда успешен
func (m *MemoryStorage) Ping(context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }
