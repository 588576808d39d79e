package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	body    []byte
	expires time.Time
}

// Memory is an in-process PageCache. It is the default when no Redis
// address is configured and is what tests use; its lifecycle is process
// start to process stop.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process page cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expires) {
		return nil, false
	}
	return entry.body, true
}

func (m *Memory) Put(_ context.Context, key string, body []byte, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{body: body, expires: m.now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Flush(_ context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}
