// Package memory provides an in-process cart store for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

type entry struct {
	cart      *cart.Cart
	expiresAt time.Time
}

// CartStore keeps carts in a map keyed by session id. Entries expire ttl
// after their last write.
type CartStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewCartStore returns a CartStore. A zero ttl disables expiry.
func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Load returns a copy of the stored cart, or an empty cart.
func (s *CartStore) Load(_ context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return &cart.Cart{}, nil
	}
	if s.ttl > 0 && !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		return &cart.Cart{}, nil
	}
	return e.cart.Clone(), nil
}

// Save stores a copy of c.
func (s *CartStore) Save(_ context.Context, sessionID string, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(c.Items) == 0 {
		delete(s.entries, sessionID)
		return nil
	}
	s.entries[sessionID] = entry{
		cart:      c.Clone(),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Delete removes the session cart.
func (s *CartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (s *CartStore) Purge(_ context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}
