package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{values: map[string]string{}} }

func (f *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func (f *fakeStore) DeletePrefix(_ context.Context, prefix string) error {
	for k := range f.values {
		if strings.HasPrefix(k, prefix) {
			delete(f.values, k)
		}
	}
	return nil
}

func (f *fakeStore) IncrementWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	return 0, nil
}

func TestGetOrLoadCallsUpstreamOnlyOnce(t *testing.T) {
	svc := New(100, time.Minute, nil, nil)
	calls := 0
	load := func() (any, error) {
		calls++
		return map[string]any{"result": "0x1"}, nil
	}

	var out map[string]any
	hit, err := svc.GetOrLoad(context.Background(), "k", 0, &out, load)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, calls)

	var out2 map[string]any
	hit, err = svc.GetOrLoad(context.Background(), "k", 0, &out2, load)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, calls)
	require.Equal(t, out, out2)
}

func TestSharedHitPopulatesInternalTier(t *testing.T) {
	shared := newFakeStore()
	svc := New(100, time.Minute, shared, nil)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))

	// drop the internal entry directly; the shared tier still has it
	svc.internal.Remove("k")

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "v", out)

	_, ok := svc.internal.Get("k")
	require.True(t, ok, "shared hit should repopulate the internal tier")
}

func TestClearRemovesOnlyMatchingPrefixFromBothTiers(t *testing.T) {
	shared := newFakeStore()
	svc := New(100, time.Minute, shared, nil)
	require.NoError(t, svc.Set(context.Background(), "eth_call:a", "v1", 0))
	require.NoError(t, svc.Set(context.Background(), "eth_call:b", "v2", 0))
	require.NoError(t, svc.Set(context.Background(), "eth_getBalance:a", "v3", 0))

	require.NoError(t, svc.Clear(context.Background(), "eth_call:"))

	var out string
	hit, err := svc.Get(context.Background(), "eth_call:a", &out)
	require.NoError(t, err)
	require.False(t, hit)

	hit, err = svc.Get(context.Background(), "eth_getBalance:a", &out)
	require.NoError(t, err)
	require.True(t, hit)
}

func TestDeleteRemovesBothTiers(t *testing.T) {
	shared := newFakeStore()
	svc := New(100, time.Minute, shared, nil)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	require.NoError(t, svc.Delete(context.Background(), "k"))

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	require.False(t, hit)
}
