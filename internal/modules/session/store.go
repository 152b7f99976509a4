// README: Context store contract and the in-process implementation (per-key lock, TTL, LRU capacity).
package session

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Store hands out exclusive, turn-long access to one conversation's context.
type Store interface {
	// Update runs fn against a working copy of the context for key while holding
	// the key's lock. The copy is committed only when fn returns nil. The returned
	// snapshot keeps this turn's intent flags; the stored context never does.
	Update(ctx context.Context, key Key, fn func(*Context) error) (Context, error)
	// Reset replaces the context for key with a fresh one.
	Reset(ctx context.Context, key Key) (Context, error)
	// Get returns the stored context without creating one.
	Get(ctx context.Context, key Key) (Context, bool, error)
}

const (
	DefaultTTL      = 24 * time.Hour
	DefaultCapacity = 10000
)

type memoryEntry struct {
	key      Key
	sem      chan struct{}
	state    Context
	lastUsed time.Time
	pins     int
	elem     *list.Element
}

// MemoryStore keeps contexts in process memory. Entries idle for longer than
// the TTL are treated as gone; beyond capacity the least recently used unpinned
// entry is evicted.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[Key]*memoryEntry
	lru      *list.List
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration, capacity int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		entries:  make(map[Key]*memoryEntry),
		lru:      list.New(),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// WithClock replaces the store clock; used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Update(ctx context.Context, key Key, fn func(*Context) error) (Context, error) {
	e := s.pin(key)
	defer s.unpin(e)

	if err := lockEntry(ctx, e); err != nil {
		return Context{}, err
	}
	defer func() { <-e.sem }()

	work := e.state.Clone()
	if err := fn(&work); err != nil {
		return Context{}, err
	}
	stored := work.Clone()
	stored.ClearIntents()
	e.state = stored
	return work, nil
}

func (s *MemoryStore) Reset(ctx context.Context, key Key) (Context, error) {
	e := s.pin(key)
	defer s.unpin(e)

	if err := lockEntry(ctx, e); err != nil {
		return Context{}, err
	}
	defer func() { <-e.sem }()

	e.state = New()
	return e.state.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (Context, bool, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		s.mu.Unlock()
		return Context{}, false, nil
	}
	e.pins++
	s.mu.Unlock()
	defer s.unpin(e)

	if err := lockEntry(ctx, e); err != nil {
		return Context{}, false, err
	}
	defer func() { <-e.sem }()
	return e.state.Clone(), true, nil
}

// Len reports the number of stored contexts, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CleanupExpired drops idle entries that no turn is holding and returns how many were removed.
func (s *MemoryStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.pins > 0 || !s.expired(e) {
			continue
		}
		s.lru.Remove(e.elem)
		delete(s.entries, key)
		removed++
	}
	return removed
}

// pin returns the live entry for key, creating or refreshing it, and keeps it
// from being evicted until unpin.
func (s *MemoryStore) pin(key Key) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && e.pins == 0 && s.expired(e) {
		s.lru.Remove(e.elem)
		delete(s.entries, key)
		ok = false
	}
	if !ok {
		e = &memoryEntry{
			key:   key,
			sem:   make(chan struct{}, 1),
			state: New(),
		}
		e.elem = s.lru.PushFront(e)
		s.entries[key] = e
	} else {
		s.lru.MoveToFront(e.elem)
	}
	e.pins++
	e.lastUsed = s.now()
	s.evictLocked()
	return e
}

func (s *MemoryStore) unpin(e *memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.pins--
	e.lastUsed = s.now()
}

func (s *MemoryStore) evictLocked() {
	for el := s.lru.Back(); el != nil && len(s.entries) > s.capacity; {
		prev := el.Prev()
		e := el.Value.(*memoryEntry)
		if e.pins == 0 {
			s.lru.Remove(el)
			delete(s.entries, e.key)
		}
		el = prev
	}
}

func (s *MemoryStore) expired(e *memoryEntry) bool {
	return s.now().Sub(e.lastUsed) > s.ttl
}

func lockEntry(ctx context.Context, e *memoryEntry) error {
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
