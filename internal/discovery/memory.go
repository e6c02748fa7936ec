package discovery

import (
	"context"
	"sync"
)

// Memory is an in-process Store guarded by a mutex.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// Claim never fails.
func (m *Memory) Claim(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[ref]; ok {
		return false, nil
	}
	m.seen[ref] = struct{}{}
	return true, nil
}

// Len returns the number of claimed references.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
