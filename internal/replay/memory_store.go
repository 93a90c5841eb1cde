package replay

import (
	"sync"
	"time"
)

// memoryStore implements Store with a map from ID to expiry.
type memoryStore struct {
	ids     map[string]time.Time
	maxSize int
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates an in-memory store holding at most maxSize IDs.
// Expiry is judged against now, or time.Now when now is nil.
func NewMemoryStore(maxSize int, now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return newMemoryStore(maxSize, now)
}

func newMemoryStore(maxSize int, now func() time.Time) *memoryStore {
	return &memoryStore{
		ids:     make(map[string]time.Time, min(maxSize, 1024)),
		maxSize: maxSize,
		now:     now,
	}
}

// Claim records id. A full store is cleaned first and then refuses new IDs
// rather than forgetting unexpired ones.
func (m *memoryStore) Claim(id string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}

	now := m.now()
	if exp, exists := m.ids[id]; exists && !now.After(exp) {
		return false, nil
	}

	if len(m.ids) >= m.maxSize {
		m.cleanupExpiredUnsafe(now)
		if len(m.ids) >= m.maxSize {
			return false, ErrCapacityExceeded
		}
	}

	m.ids[id] = expiresAt
	return true, nil
}

func (m *memoryStore) Contains(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrClosed
	}

	expiresAt, exists := m.ids[id]
	if !exists {
		return false, nil
	}

	// Expired entries are left for Cleanup to avoid write locks on reads.
	return !m.now().After(expiresAt), nil
}

func (m *memoryStore) Cleanup() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	return m.cleanupExpiredUnsafe(m.now()), nil
}

func (m *memoryStore) Size() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}

	return len(m.ids), nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	m.ids = nil
	return nil
}

// cleanupExpiredUnsafe removes expired IDs (must be called with write lock held)
func (m *memoryStore) cleanupExpiredUnsafe(now time.Time) int {
	cleaned := 0
	for id, expiresAt := range m.ids {
		if now.After(expiresAt) {
			delete(m.ids, id)
			cleaned++
		}
	}
	return cleaned
}
