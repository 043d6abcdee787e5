package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInProcessStoreBreachesAtLimitPlusOne(t *testing.T) {
	store := NewInProcessStore()
	key := Key("1.2.3.4", "eth_call")

	for i := 0; i < 5; i++ {
		exceeded, err := store.IncrementAndCheck(context.Background(), key, 5, time.Second)
		require.NoError(t, err)
		require.False(t, exceeded, "call %d should not exceed", i+1)
	}

	exceeded, err := store.IncrementAndCheck(context.Background(), key, 5, time.Second)
	require.NoError(t, err)
	require.True(t, exceeded, "the (limit+1)-th call must report exceeded")
}

func TestInProcessStoreResetsAfterWindow(t *testing.T) {
	store := NewInProcessStore()
	key := Key("1.2.3.4", "eth_call")

	for i := 0; i < 3; i++ {
		_, err := store.IncrementAndCheck(context.Background(), key, 2, 10*time.Millisecond)
		require.NoError(t, err)
	}

	time.Sleep(20 * time.Millisecond)

	exceeded, err := store.IncrementAndCheck(context.Background(), key, 2, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, exceeded, "window should have rolled over")
}

// sharedFake simulates a Redis INCR+PEXPIRE round trip for use by multiple
// "replicas" pointed at the same counter, exercising the cross-replica
// property from spec.md §8.
type sharedFake struct {
	counters map[string]int64
}

func (s *sharedFake) Get(_ context.Context, _ string) (string, bool, error) { return "", false, nil }
func (s *sharedFake) Set(_ context.Context, _, _ string, _ time.Duration) error { return nil }
func (s *sharedFake) Delete(_ context.Context, _ string) error { return nil }
func (s *sharedFake) DeletePrefix(_ context.Context, _ string) error { return nil }

func (s *sharedFake) IncrementWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counters[key]++
	return s.counters[key], nil
}

func TestSharedStoreBackedIsConsistentAcrossReplicas(t *testing.T) {
	shared := &sharedFake{counters: map[string]int64{}}
	replicaA := NewSharedStoreBacked(shared)
	replicaB := NewSharedStoreBacked(shared)
	key := Key("1.2.3.4", "eth_call")

	var lastExceeded bool
	replicas := []*SharedStoreBacked{replicaA, replicaB}
	for i := 0; i < 6; i++ {
		r := replicas[i%2]
		exceeded, err := r.IncrementAndCheck(context.Background(), key, 5, time.Second)
		require.NoError(t, err)
		lastExceeded = exceeded
		if i < 5 {
			require.False(t, exceeded)
		}
	}
	require.True(t, lastExceeded, "the 6th call across replicas must be exceeded")
}
