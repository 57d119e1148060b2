package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store with TTL and size-based LRU eviction.
// It is the default when no Redis URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

type memoryItem struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a store holding at most maxSize entries.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Get retrieves a value from the store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	item := elem.Value.(*memoryItem)
	if !m.now().Before(item.expiresAt) {
		m.removeElement(elem)
		return nil, ErrMiss
	}

	m.lru.MoveToFront(elem)
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// SetWithTTL stores a copy of value.
func (m *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := &memoryItem{
		key:       key,
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}

	if elem, ok := m.items[key]; ok {
		elem.Value = item
		m.lru.MoveToFront(elem)
		return nil
	}

	m.items[key] = m.lru.PushFront(item)
	if m.maxSize > 0 && m.lru.Len() > m.maxSize {
		if oldest := m.lru.Back(); oldest != nil {
			m.removeElement(oldest)
		}
	}
	return nil
}

// Delete removes keys from the store.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		if elem, ok := m.items[key]; ok {
			m.removeElement(elem)
		}
	}
	return nil
}

// Len returns the number of entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// CleanExpired drops every expired entry and returns how many were removed.
func (m *MemoryStore) CleanExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for elem := m.lru.Front(); elem != nil; {
		next := elem.Next()
		if !now.Before(elem.Value.(*memoryItem).expiresAt) {
			m.removeElement(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// StartCleanup sweeps expired entries every interval until Stop is called.
func (m *MemoryStore) StartCleanup(interval time.Duration) {
	m.stopCleanup = make(chan struct{})
	m.cleanupDone = make(chan struct{})

	go func() {
		defer close(m.cleanupDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.CleanExpired()
			case <-m.stopCleanup:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine started by StartCleanup.
func (m *MemoryStore) Stop() {
	if m.stopCleanup != nil {
		close(m.stopCleanup)
		<-m.cleanupDone
		m.stopCleanup = nil
	}
}

func (m *MemoryStore) removeElement(elem *list.Element) {
	delete(m.items, elem.Value.(*memoryItem).key)
	m.lru.Remove(elem)
}
