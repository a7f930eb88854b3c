package store

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store. Update works on a copy of the map and
// swaps it in only when the callback succeeds, so a failed call leaves no
// trace, matching the transactional contract of PostgresStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) View(ctx context.Context, fn func(kv KV) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryKV{entries: s.entries})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(kv KV) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string][]byte, len(s.entries))
	for k, v := range s.entries {
		staged[k] = v
	}
	if err := fn(&memoryKV{entries: staged}); err != nil {
		return err
	}
	s.entries = staged
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

type memoryKV struct {
	entries map[string][]byte
}

func (k *memoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := k.entries[key]
	return value, found, nil
}

func (k *memoryKV) Put(_ context.Context, key string, value []byte) error {
	k.entries[key] = value
	return nil
}

func (k *memoryKV) Delete(_ context.Context, key string) error {
	delete(k.entries, key)
	return nil
}
