package dedupe

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	expireAt int64 // unix nanoseconds
}

// MemoryDeduper is an in-process Deduper with TTL eviction. Suitable for a
// single indexer instance; distributed deployments use RedisDeduper.
type MemoryDeduper struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[string]memEntry

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryDeduper creates a MemoryDeduper. ttl bounds how long ids are
// remembered; janitorEvery controls expired-key sweeps (0 disables the sweeper).
func NewMemoryDeduper(ttl, janitorEvery time.Duration) *MemoryDeduper {
	m := &MemoryDeduper{
		ttl:    ttl,
		items:  make(map[string]memEntry, 1024),
		stopCh: make(chan struct{}),
	}
	if janitorEvery > 0 {
		go m.janitor(janitorEvery)
	}
	return m
}

// Seen reports whether id was observed within the TTL and records it.
func (m *MemoryDeduper) Seen(_ context.Context, id string) (bool, error) {
	now := time.Now().UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[id]; ok && e.expireAt > now {
		return true, nil
	}
	m.items[id] = memEntry{expireAt: now + m.ttl.Nanoseconds()}
	return false, nil
}

func (m *MemoryDeduper) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			now := time.Now().UnixNano()
			m.mu.Lock()
			for k, e := range m.items {
				if e.expireAt <= now {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Close stops the background sweeper if it is running.
func (m *MemoryDeduper) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

var _ Deduper = (*MemoryDeduper)(nil)
