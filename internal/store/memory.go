package store

import (
	"context"
	"sync"
)

// MemoryStore keeps values for the life of the process. Used for throwaway games and tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func memoryKey(slot, key string) string { return slot + "\x00" + key }

func (m *MemoryStore) Get(_ context.Context, slot, key string) ([]byte, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[memoryKey(slot, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(_ context.Context, slot, key string, value []byte) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memoryKey(slot, key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, slot, key string) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, memoryKey(slot, key))
	return nil
}

func (m *MemoryStore) Close() error { return nil }
