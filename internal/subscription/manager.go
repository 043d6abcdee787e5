// Package subscription implements the WebSocket subscription manager and
// poller (spec.md §4.7): subscriptions are keyed by a
// tag = canonical(event, filters); the poller runs a single timer, fetches
// the chain head once per tick, reads each distinct tag once, and fans out
// to every subscriber of that tag.
package subscription

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// Event names a subscription's upstream event type (spec.md §4.7).
type Event string

const (
	EventLogs               Event = "logs"
	EventNewHeads           Event = "newHeads"
	EventNewPendingTxs      Event = "newPendingTransactions"
)

// Callback delivers a fanned-out notification payload to one subscriber.
type Callback func(subID string, payload any)

// subscriber is one eth_subscribe registration.
type subscriber struct {
	subID        string
	connectionID string
	tag          string
	callback     Callback
}

// tagState tracks per-tag poll state.
type tagState struct {
	lastPolled  uint64
	subscribers mapset.Set[string] // subscriber IDs
}

// Reader performs the upstream reads the poller fans out from.
type Reader interface {
	ChainHead(ctx context.Context) (uint64, error)
	ReadLogs(ctx context.Context, rc relayctx.Context, filters map[string]any, fromBlock uint64) ([]any, error)
	ReadNewHeads(ctx context.Context, rc relayctx.Context, includeTxs bool) (any, error)
}

// Manager is the subscription manager + poller (spec.md §4.7).
type Manager struct {
	mu                   sync.Mutex
	subscribers          map[string]*subscriber // subID -> subscriber
	connectionSubCount   map[string]int
	tags                 map[string]*tagState
	maxPerConnection     int
	pollInterval         time.Duration
	reader               Reader

	stopPoller context.CancelFunc
}

// New builds a Manager. maxPerConnection enforces MAX_SUBSCRIPTIONS.
func New(reader Reader, pollInterval time.Duration, maxPerConnection int) *Manager {
	return &Manager{
		subscribers:        make(map[string]*subscriber),
		connectionSubCount: make(map[string]int),
		tags:               make(map[string]*tagState),
		maxPerConnection:   maxPerConnection,
		pollInterval:       pollInterval,
		reader:             reader,
	}
}

// Tag builds the canonical(event, filters) key (spec.md §3 Subscription).
func Tag(event Event, filters map[string]any) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]any, len(filters))
	for _, k := range keys {
		ordered[k] = filters[k]
	}
	raw, _ := json.Marshal(ordered)
	return string(event) + ":" + string(raw)
}

// Subscribe implements eth_subscribe (spec.md §4.7): enforces the
// per-connection cap, registers the subscriber under its tag, and starts
// the poller if this is the first active tag.
func (m *Manager) Subscribe(connectionID string, event Event, filters map[string]any, cb Callback) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectionSubCount[connectionID] >= m.maxPerConnection {
		return "", jsonrpcerr.MaxSubscriptions()
	}

	tag := Tag(event, filters)
	subID := uuid.NewString()
	m.subscribers[subID] = &subscriber{subID: subID, connectionID: connectionID, tag: tag, callback: cb}
	m.connectionSubCount[connectionID]++

	state, ok := m.tags[tag]
	if !ok {
		state = &tagState{subscribers: mapset.NewSet[string]()}
		m.tags[tag] = state
	}
	state.subscribers.Add(subID)

	if m.stopPoller == nil {
		m.startPoller()
	}
	return subID, nil
}

// Unsubscribe implements eth_unsubscribe (spec.md §4.7): returns true iff
// at least one subscription matched. When the last subscription anywhere
// is removed, the poller stops; it restarts on the next Subscribe.
func (m *Manager) Unsubscribe(subID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscribers[subID]
	if !ok {
		return false
	}
	delete(m.subscribers, subID)
	m.connectionSubCount[sub.connectionID]--
	if m.connectionSubCount[sub.connectionID] <= 0 {
		delete(m.connectionSubCount, sub.connectionID)
	}

	if state, ok := m.tags[sub.tag]; ok {
		state.subscribers.Remove(subID)
		if state.subscribers.Cardinality() == 0 {
			delete(m.tags, sub.tag)
		}
	}

	if len(m.subscribers) == 0 && m.stopPoller != nil {
		m.stopPoller()
		m.stopPoller = nil
	}
	return true
}

// startPoller launches the single background timer. Callers must hold m.mu.
func (m *Manager) startPoller() {
	ctx, cancel := context.WithCancel(context.Background())
	m.stopPoller = cancel
	go m.pollLoop(ctx)
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick implements one poll cycle (spec.md §4.7): one chain-head fetch,
// then one upstream read per distinct tag, then per-element fan-out for
// array results and single-shot fan-out for scalar results.
func (m *Manager) tick(ctx context.Context) {
	head, err := m.reader.ChainHead(ctx)
	if err != nil {
		return
	}

	m.mu.Lock()
	snapshot := make(map[string][]string, len(m.tags))
	for tag, state := range m.tags {
		snapshot[tag] = state.subscribers.ToSlice()
	}
	m.mu.Unlock()

	rc := relayctx.New("")
	for tag, subIDs := range snapshot {
		event, filters := parseTag(tag)
		var payloads []any
		switch event {
		case EventLogs:
			payloads, err = m.reader.ReadLogs(ctx, rc, filters, head)
		case EventNewHeads:
			var result any
			result, err = m.reader.ReadNewHeads(ctx, rc, includeTxsFilter(filters))
			if result != nil {
				payloads = []any{result}
			}
		default:
			continue
		}
		if err != nil {
			continue
		}

		m.mu.Lock()
		for _, subID := range subIDs {
			sub, ok := m.subscribers[subID]
			if !ok {
				continue
			}
			for _, p := range payloads {
				sub.callback(sub.subID, p)
			}
		}
		if state, ok := m.tags[tag]; ok {
			state.lastPolled = head
		}
		m.mu.Unlock()
	}
}

// includeTxsFilter reads the newHeads subscription's includeTransactions
// filter (spec.md §4.7 step 2: "getBlockByNumber('latest', includeTxs?)"),
// mirroring eth_getBlockByNumber's own fullTx parameter name.
func includeTxsFilter(filters map[string]any) bool {
	v, ok := filters["includeTransactions"].(bool)
	return ok && v
}

func parseTag(tag string) (Event, map[string]any) {
	for i, r := range tag {
		if r == ':' {
			event := Event(tag[:i])
			var filters map[string]any
			_ = json.Unmarshal([]byte(tag[i+1:]), &filters)
			return event, filters
		}
	}
	return Event(tag), nil
}
