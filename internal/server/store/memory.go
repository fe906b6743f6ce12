package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/swappy/internal/common"
)

// MemoryStore keeps everything in process memory. It is meant for tests and
// single-instance development runs.
type MemoryStore struct {
	mu     sync.RWMutex
	sets   map[string]map[string]struct{}
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:   make(map[string]map[string]struct{}),
		values: make(map[string]string),
	}
}

func (m *MemoryStore) Add(_ context.Context, key string, member []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[string(member)] = struct{}{}
	return nil
}

func (m *MemoryStore) Card(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.sets[key])), nil
}

func (m *MemoryStore) IsMember(_ context.Context, key string, member []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sets[key][string(member)]
	return ok, nil
}

func (m *MemoryStore) Remove(_ context.Context, key string, member []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.sets[key]
	delete(set, string(member))
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
