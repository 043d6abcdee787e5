// Package ratelimit implements the increment_and_check primitive from
// spec.md §4.3: an atomic counter keyed by ratelimit:{ip}:{method}, backed
// by either an in-process map or the shared store; with the shared store,
// replicas observe a consistent monotonic counter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/sharedstore"
)

// Key builds the RateLimitKey invariant from spec.md §3.
func Key(ip, method string) string {
	return fmt.Sprintf("ratelimit:%s:%s", ip, method)
}

// Store is the atomic increment-and-check primitive.
type Store interface {
	// IncrementAndCheck increments the counter for key and reports whether
	// the limit has been exceeded. The increment, limit comparison, and
	// window establishment are atomic from the caller's perspective.
	IncrementAndCheck(ctx context.Context, key string, limit int64, window time.Duration) (exceeded bool, err error)
}

// InProcessStore is the in-process tier: counter + expiry tuples in a map
// guarded by a mutex, with expiry checked lazily on access. The map is not
// size-bounded and nothing evicts entries; an expired entry is only reset
// when its key is incremented again.
type InProcessStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// NewInProcessStore builds an empty InProcessStore.
func NewInProcessStore() *InProcessStore {
	return &InProcessStore{entries: make(map[string]*counterEntry)}
}

func (s *InProcessStore) IncrementAndCheck(_ context.Context, key string, limit int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = &counterEntry{count: 0, expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count > limit, nil
}

// SharedStoreBacked delegates to the shared store's atomic
// increment-with-TTL-on-create primitive (spec.md §4.3).
type SharedStoreBacked struct {
	store sharedstore.Store
}

// NewSharedStoreBacked wraps a sharedstore.Store as a rate-limit Store.
func NewSharedStoreBacked(store sharedstore.Store) *SharedStoreBacked {
	return &SharedStoreBacked{store: store}
}

func (s *SharedStoreBacked) IncrementAndCheck(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	n, err := s.store.IncrementWithTTL(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n > limit, nil
}
