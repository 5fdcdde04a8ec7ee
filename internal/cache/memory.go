package cache

import (
	"container/list"
	"time"
)

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero => no expiry
}

// memoryLRU is a bounded map with least-recently-accessed eviction. Eviction
// only happens when inserting a key that is not already present would push
// the size over capacity.
type memoryLRU struct {
	capacity int
	order    *list.List // front = most recently used
	index    map[string]*list.Element
}

func newMemoryLRU(capacity int) *memoryLRU {
	if capacity < 1 {
		capacity = 1
	}
	return &memoryLRU{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (m *memoryLRU) get(key string, now time.Time) ([]byte, bool) {
	el, ok := m.index[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*memoryEntry)
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		// expired entries are purged lazily on read, never served
		m.order.Remove(el)
		delete(m.index, key)
		return nil, false
	}

	m.order.MoveToFront(el)
	return e.value, true
}

func (m *memoryLRU) set(key string, value []byte, expiresAt time.Time) {
	if el, ok := m.index[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value = value
		e.expiresAt = expiresAt
		m.order.MoveToFront(el)
		return
	}

	if m.order.Len() >= m.capacity {
		oldest := m.order.Back()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.index, oldest.Value.(*memoryEntry).key)
		}
	}

	m.index[key] = m.order.PushFront(&memoryEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
}

func (m *memoryLRU) delete(key string) {
	if el, ok := m.index[key]; ok {
		m.order.Remove(el)
		delete(m.index, key)
	}
}

func (m *memoryLRU) len() int { return m.order.Len() }
