// Package dedupe drops webhook deliveries the platform has already sent.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// Memory remembers message IDs in process for ttl. Used when Redis is not configured.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) FirstSeen(_ context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.seen[messageID]; ok && now.Before(exp) {
		return false, nil
	}
	m.seen[messageID] = now.Add(m.ttl)
	if len(m.seen)%256 == 0 {
		m.sweep(now)
	}
	return true, nil
}

func (m *Memory) sweep(now time.Time) {
	for k, exp := range m.seen {
		if !now.Before(exp) {
			delete(m.seen, k)
		}
	}
}
