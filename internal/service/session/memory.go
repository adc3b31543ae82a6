package session

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

// MemoryStore keeps envelopes in a bounded LRU cache. Entries older than ttl are
// treated as missing; a zero ttl keeps them until evicted.
type MemoryStore struct {
	cache *lru.Cache[string, record]
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most size slots.
func NewMemoryStore(size int, ttl time.Duration) (*MemoryStore, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, record](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &MemoryStore{cache: cache, ttl: ttl, now: time.Now}, nil
}

// Load returns the envelope stored under slot.
func (m *MemoryStore) Load(_ context.Context, slot string) (interview.Session, error) {
	if err := ValidateSlot(slot); err != nil {
		return interview.Session{}, err
	}
	rec, ok := m.cache.Get(slot)
	if !ok {
		return interview.Session{}, ErrSessionNotFound
	}
	if m.ttl > 0 && m.now().Sub(rec.savedAt) > m.ttl {
		m.cache.Remove(slot)
		return interview.Session{}, ErrSessionNotFound
	}
	return decode(slot, rec.payload)
}

// Save replaces the envelope under slot.
func (m *MemoryStore) Save(_ context.Context, slot string, s interview.Session) error {
	rec, err := encode(slot, s)
	if err != nil {
		return err
	}
	rec.savedAt = m.now()
	m.cache.Add(slot, rec)
	return nil
}

// Clear removes the envelope under slot. Clearing an empty slot is not an error.
func (m *MemoryStore) Clear(_ context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	m.cache.Remove(slot)
	return nil
}

// Len reports the number of stored slots.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
