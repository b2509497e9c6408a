package settings

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.Mutex
	value string
	set   bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", ErrNotFound
	}
	return m.value, nil
}

func (m *Memory) Save(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = address, true
	return nil
}

func (m *Memory) Close() error { return nil }
