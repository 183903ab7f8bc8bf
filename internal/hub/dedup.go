package hub

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduper is the in-process Deduper used when Redis is not configured.
// Markers do not survive a restart.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryDeduper) SeenOnce(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.seen[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	m.seen[eventID] = now.Add(ttl)
	if len(m.seen)%1024 == 0 {
		m.sweep(now)
	}
	return true, nil
}

func (m *MemoryDeduper) Forget(_ context.Context, eventID string) error {
	m.mu.Lock()
	delete(m.seen, eventID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryDeduper) sweep(now time.Time) {
	for id, exp := range m.seen {
		if !now.Before(exp) {
			delete(m.seen, id)
		}
	}
}
