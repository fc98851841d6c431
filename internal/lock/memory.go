package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLock is a process-local Locker for tests and single-instance runs
// without Redis. TTLs expire lazily on the next Lock attempt.
type MemoryLock struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{locks: make(map[string]time.Time)}
}

func (m *MemoryLock) Lock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if deadline, held := m.locks[key]; held && deadline.After(now) {
		return false, nil
	}

	m.locks[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryLock) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locks, key)
	return nil
}
