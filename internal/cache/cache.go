// Package cache implements the relay's two-tier cache service (spec.md
// §4.2): an in-process LRU, and an optional shared key/value store. Every
// internal entry expires after the single default TTL given to New; a
// per-call TTL reaches the shared tier only. Reads check internal then
// shared; a shared hit populates internal. Writes propagate to both tiers.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/sharedstore"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

// Tier identifies which level of the cache served a read.
type Tier string

const (
	TierInternal Tier = "internal"
	TierShared   Tier = "shared"
)

// Service is the two-tier cache. The zero value is not usable; build one
// with New.
type Service struct {
	internal *lru.LRU[string, []byte]
	shared   sharedstore.Store // nil when the shared tier is disabled
	defaultTTL time.Duration
	metrics  *telemetry.Metrics
	sf       singleflight.Group
}

// New builds a Service. shared may be nil, in which case the cache
// operates as internal-only, matching spec.md's "optional shared store".
func New(capacity int, defaultTTL time.Duration, shared sharedstore.Store, metrics *telemetry.Metrics) *Service {
	return &Service{
		internal:   lru.NewLRU[string, []byte](capacity, nil, defaultTTL),
		shared:     shared,
		defaultTTL: defaultTTL,
		metrics:    metrics,
	}
}

// Get looks up key, checking the internal tier then the shared tier. A
// shared hit populates internal with the service's default TTL; the shared
// entry's remaining TTL is not read and does not carry over.
func (s *Service) Get(ctx context.Context, key string, out any) (bool, error) {
	if raw, ok := s.internal.Get(key); ok {
		s.observe(TierInternal)
		return true, json.Unmarshal(raw, out)
	}

	if s.shared != nil {
		raw, ok, err := s.shared.Get(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			s.observe(TierShared)
			s.internal.Add(key, []byte(raw))
			return true, json.Unmarshal([]byte(raw), out)
		}
	}

	if s.metrics != nil {
		method := key
		if i := strings.IndexByte(key, ':'); i >= 0 {
			method = key[:i]
		}
		s.metrics.CacheMisses.WithLabelValues(method).Inc()
	}
	return false, nil
}

// Set writes value to both tiers. ttl applies to the shared tier, where
// zero uses the service default; the internal tier always uses the default
// TTL given to New.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.internal.Add(key, raw)
	if s.shared != nil {
		return s.shared.Set(ctx, key, string(raw), ttl)
	}
	return nil
}

// Delete removes key from both tiers.
func (s *Service) Delete(ctx context.Context, key string) error {
	s.internal.Remove(key)
	if s.shared != nil {
		return s.shared.Delete(ctx, key)
	}
	return nil
}

// Clear removes every key beginning with prefix from both tiers,
// completing spec.md §4.2's clear(prefix?) operation. An empty prefix
// matches every key.
func (s *Service) Clear(ctx context.Context, prefix string) error {
	for _, key := range s.internal.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.internal.Remove(key)
		}
	}
	if s.shared != nil {
		return s.shared.DeletePrefix(ctx, prefix)
	}
	return nil
}

// GetOrLoad is a convenience wrapper that consults the cache and, on a
// miss, calls load exactly once even under concurrent callers for the same
// key (collapsed via singleflight), storing the result before returning.
func (s *Service) GetOrLoad(ctx context.Context, key string, ttl time.Duration, out any, load func() (any, error)) (bool, error) {
	if hit, err := s.Get(ctx, key, out); err != nil || hit {
		return hit, err
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		return load()
	})
	if err != nil {
		return false, err
	}
	if err := s.Set(ctx, key, v, ttl); err != nil {
		return false, err
	}
	raw, _ := json.Marshal(v)
	return false, json.Unmarshal(raw, out)
}

func (s *Service) observe(tier Tier) {
	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues(string(tier)).Inc()
	}
}
