package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

type fakeReader struct {
	head int
	logs []any
}

func (f *fakeReader) ChainHead(context.Context) (uint64, error) { return uint64(f.head), nil }

func (f *fakeReader) ReadLogs(context.Context, relayctx.Context, map[string]any, uint64) ([]any, error) {
	return f.logs, nil
}

func (f *fakeReader) ReadNewHeads(_ context.Context, _ relayctx.Context, includeTxs bool) (any, error) {
	return map[string]any{"number": f.head, "includeTxs": includeTxs}, nil
}

func TestTagIsCanonicalRegardlessOfFilterKeyOrder(t *testing.T) {
	t1 := Tag(EventLogs, map[string]any{"a": 1, "b": 2})
	t2 := Tag(EventLogs, map[string]any{"b": 2, "a": 1})
	require.Equal(t, t1, t2)
}

func TestSubscribeEnforcesMaxSubscriptionsPerConnection(t *testing.T) {
	m := New(&fakeReader{}, time.Hour, 1)
	_, err := m.Subscribe("conn1", EventNewHeads, nil, func(string, any) {})
	require.NoError(t, err)

	_, err = m.Subscribe("conn1", EventNewHeads, map[string]any{"x": 1}, func(string, any) {})
	require.Error(t, err)
}

func TestUnsubscribeReturnsFalseForUnknownID(t *testing.T) {
	m := New(&fakeReader{}, time.Hour, 10)
	require.False(t, m.Unsubscribe("nonexistent"))
}

func TestUnsubscribeRemovesExactlyOneMatchingSubscription(t *testing.T) {
	m := New(&fakeReader{}, time.Hour, 10)
	id, err := m.Subscribe("conn1", EventNewHeads, nil, func(string, any) {})
	require.NoError(t, err)

	require.True(t, m.Unsubscribe(id))
	require.False(t, m.Unsubscribe(id))
}

func TestTickFansOutArrayLogsOncePerElement(t *testing.T) {
	reader := &fakeReader{head: 100, logs: []any{"log1", "log2", "log3"}}
	m := New(reader, time.Hour, 10)

	var mu sync.Mutex
	var received []any
	_, err := m.Subscribe("conn1", EventLogs, nil, func(_ string, payload any) {
		mu.Lock()
		received = append(received, payload)
		mu.Unlock()
	})
	require.NoError(t, err)

	m.tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 3)
}

func TestTickDerivesIncludeTxsFromSubscriptionFilters(t *testing.T) {
	reader := &fakeReader{head: 42}
	m := New(reader, time.Hour, 10)

	var mu sync.Mutex
	var received []any
	_, err := m.Subscribe("conn1", EventNewHeads, map[string]any{"includeTransactions": true}, func(_ string, payload any) {
		mu.Lock()
		received = append(received, payload)
		mu.Unlock()
	})
	require.NoError(t, err)

	m.tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Equal(t, true, received[0].(map[string]any)["includeTxs"])
}

func TestTickDefaultsIncludeTxsToFalseWithoutFilter(t *testing.T) {
	reader := &fakeReader{head: 42}
	m := New(reader, time.Hour, 10)

	var mu sync.Mutex
	var received []any
	_, err := m.Subscribe("conn1", EventNewHeads, nil, func(_ string, payload any) {
		mu.Lock()
		received = append(received, payload)
		mu.Unlock()
	})
	require.NoError(t, err)

	m.tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Equal(t, false, received[0].(map[string]any)["includeTxs"])
}

func TestTickFansOutToAllSubscribersOfSameTag(t *testing.T) {
	reader := &fakeReader{head: 100, logs: []any{"log1"}}
	m := New(reader, time.Hour, 10)

	var mu sync.Mutex
	count := 0
	cb := func(string, any) {
		mu.Lock()
		count++
		mu.Unlock()
	}
	_, err := m.Subscribe("conn1", EventLogs, nil, cb)
	require.NoError(t, err)
	_, err = m.Subscribe("conn2", EventLogs, nil, cb)
	require.NoError(t, err)

	m.tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, count) // one read upstream, K=2 subscribers * N=1 log = 2 callback invocations
}
