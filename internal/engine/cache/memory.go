package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/ecotally/ecotally/internal/lca"
)

// Memory tier defaults.
const (
	// DefaultMemoryCapacity bounds the in-process tier's entry count.
	DefaultMemoryCapacity = 512

	// DefaultMemoryTTL is the in-process tier's entry lifetime.
	DefaultMemoryTTL = 30 * time.Minute

	// evictionDivisor selects the share of entries removed when over
	// capacity: the lowest-access-count quarter.
	evictionDivisor = 4
)

// memoryEntry is one in-process cache slot. Access counts drive eviction.
type memoryEntry struct {
	result      *lca.CalculationResult
	insertedAt  time.Time
	expiresAt   time.Time
	accessCount int64
}

// MemoryStore is the bounded in-process cache tier. When the store exceeds
// capacity, the quarter of entries with the lowest access counts is evicted,
// approximating LFU without an ordered structure. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	capacity int
	ttl      time.Duration
}

// NewMemoryStore builds a memory tier. Non-positive capacity or TTL fall
// back to the defaults.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &MemoryStore{
		entries:  make(map[string]*memoryEntry),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns a clone of the cached result, or false on miss or expiry.
// A hit increments the entry's access count.
func (s *MemoryStore) Get(key string) (*lca.CalculationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	e.accessCount++
	return e.result.Clone(), true
}

// Put stores a result clone under the key, evicting the low-access quarter
// when over capacity. Entries are only ever complete results.
func (s *MemoryStore) Put(key string, result *lca.CalculationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.entries[key] = &memoryEntry{
		result:     result.Clone(),
		insertedAt: now,
		expiresAt:  now.Add(s.ttl),
	}

	if len(s.entries) > s.capacity {
		s.evictLocked()
	}
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLocked removes the lowest-access-count quarter of entries. Must be
// called with the mutex held.
func (s *MemoryStore) evictLocked() {
	type ranked struct {
		key   string
		count int64
	}
	all := make([]ranked, 0, len(s.entries))
	for k, e := range s.entries {
		all = append(all, ranked{key: k, count: e.accessCount})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].count < all[j].count })

	n := len(all) / evictionDivisor
	if n == 0 {
		n = 1
	}
	for _, r := range all[:n] {
		delete(s.entries, r.key)
	}
}
