// Package cache holds fetched token data for its TTL window so steady
// polling does not hammer the oracle RPC or the market data API. Entries
// expire lazily at read time; there is no background sweep because the key
// space is bounded by #tokens x #data-kinds x #periods.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	writtenAt time.Time
	ttl       time.Duration
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock injects the time source, so tests can move the clock instead
// of sleeping through TTL windows.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the stored value if it is still fresh. An expired entry is
// indistinguishable from an absent one; the caller refetches and overwrites.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.writtenAt) >= e.ttl {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key. Concurrent writes to the same key are
// last-write-wins, there are no merge semantics.
func (s *Store) Put(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, writtenAt: s.now(), ttl: ttl}
	s.mu.Unlock()
}

// Key builds the composite cache key, eg. Key("ETH", "snapshot") or
// Key("ETH", "series", "hourly").
func Key(symbol string, parts ...string) string {
	return strings.Join(append([]string{symbol}, parts...), ":")
}
