// Package filters implements the server-side filter registry (spec.md
// §4.6): new_filter, new_block_filter, uninstall_filter, get_filter_logs,
// get_filter_changes. Disabled entirely unless FILTER_API_ENABLED is set.
package filters

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ethtypes"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// Kind discriminates a Filter's variants (spec.md §3).
type Kind int

const (
	KindLog Kind = iota
	KindNewBlock
)

// LogParams is a log filter's creation parameters.
type LogParams struct {
	Address string
	Topics  []string
	ToBlock uint64
}

// Filter is the stored entity (spec.md §3).
type Filter struct {
	ID            string
	Kind          Kind
	Params        LogParams
	LastQueried   *uint64
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// BlockResolver resolves block tags and validates ranges, reused from the
// block translation service.
type BlockResolver interface {
	ResolveBlockNumber(ctx context.Context, rc relayctx.Context, tag ethtypes.BlockTag) (uint64, error)
	ValidateBlockRange(ctx context.Context, rc relayctx.Context, from, to ethtypes.BlockTag) (fromNumber, toNumber uint64, err error)
}

// MirrorClient is the slice of the Mirror Node client this service needs.
type MirrorClient interface {
	GetLogs(ctx context.Context, rc relayctx.Context, fromBlock, toBlock uint64, address string, topics []string) ([]mirrornode.ContractLogResponse, error)
	GetBlock(ctx context.Context, rc relayctx.Context, numberOrHash string) (*mirrornode.BlockResponse, bool, error)
}

// Service implements the filter operations (spec.md §4.6).
type Service struct {
	mu      sync.Mutex
	filters map[string]*Filter
	enabled bool
	ttl     time.Duration
	blocks  BlockResolver
	mirror  MirrorClient
}

// New builds a Service. enabled mirrors FILTER_API_ENABLED: when false,
// every operation returns UNSUPPORTED_METHOD.
func New(enabled bool, ttl time.Duration, blocks BlockResolver, mirror MirrorClient) *Service {
	return &Service{
		filters: make(map[string]*Filter),
		enabled: enabled,
		ttl:     ttl,
		blocks:  blocks,
		mirror:  mirror,
	}
}

func (s *Service) checkEnabled(method string) error {
	if !s.enabled {
		return jsonrpcerr.UnsupportedMethod(method)
	}
	return nil
}

// NewFilter implements new_filter (spec.md §4.6).
func (s *Service) NewFilter(ctx context.Context, rc relayctx.Context, fromBlock, toBlock ethtypes.BlockTag, address string, topics []string) (string, error) {
	if err := s.checkEnabled("eth_newFilter"); err != nil {
		return "", err
	}

	fromNumber, toNumber, err := s.blocks.ValidateBlockRange(ctx, rc, fromBlock, toBlock)
	if err != nil {
		return "", err
	}

	id := randomFilterID()
	f := &Filter{
		ID:          id,
		Kind:        KindLog,
		Params:      LogParams{Address: address, Topics: topics, ToBlock: toNumber},
		LastQueried: uint64Ptr(fromNumber),
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	s.filters[id] = f
	s.mu.Unlock()
	return id, nil
}

// NewBlockFilter implements new_block_filter (spec.md §4.6).
func (s *Service) NewBlockFilter(ctx context.Context, rc relayctx.Context) (string, error) {
	if err := s.checkEnabled("eth_newBlockFilter"); err != nil {
		return "", err
	}
	head, err := s.blocks.ResolveBlockNumber(ctx, rc, ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	if err != nil {
		return "", err
	}

	id := randomFilterID()
	f := &Filter{
		ID:          id,
		Kind:        KindNewBlock,
		LastQueried: uint64Ptr(head),
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(s.ttl),
	}
	s.mu.Lock()
	s.filters[id] = f
	s.mu.Unlock()
	return id, nil
}

// NewPendingTransactionFilter always returns UNSUPPORTED_METHOD (spec.md
// §4.6, pending transactions are a declared Non-goal).
func (s *Service) NewPendingTransactionFilter() (string, error) {
	return "", jsonrpcerr.UnsupportedMethod("eth_newPendingTransactionFilter")
}

// UninstallFilter implements uninstall_filter (spec.md §4.6): idempotent,
// returns true iff a filter actually existed.
func (s *Service) UninstallFilter(id string) (bool, error) {
	if err := s.checkEnabled("eth_uninstallFilter"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.filters[id]
	delete(s.filters, id)
	return existed, nil
}

// GetFilterLogs implements get_filter_logs (spec.md §4.6).
func (s *Service) GetFilterLogs(ctx context.Context, rc relayctx.Context, id string) ([]mirrornode.ContractLogResponse, error) {
	if err := s.checkEnabled("eth_getFilterLogs"); err != nil {
		return nil, err
	}
	f, err := s.lookupAndTouch(id)
	if err != nil {
		return nil, err
	}
	if f.Kind != KindLog {
		return nil, jsonrpcerr.FilterNotFound()
	}
	return s.mirror.GetLogs(ctx, rc, *f.LastQueried, f.Params.ToBlock, f.Params.Address, f.Params.Topics)
}

// GetFilterChanges implements get_filter_changes (spec.md §4.6): queries
// logs from last_queried (or creation fromBlock) to toBlock inclusive;
// advances last_queried to max(blockNumber)+1, or current head+1 when
// empty, because the mirror node log query is inclusive on both ends. New
// block filters instead return the hashes of each block greater than
// last_queried, in ascending order (spec.md §4.6).
func (s *Service) GetFilterChanges(ctx context.Context, rc relayctx.Context, id string) (any, error) {
	if err := s.checkEnabled("eth_getFilterChanges"); err != nil {
		return nil, err
	}
	f, err := s.lookupAndTouch(id)
	if err != nil {
		return nil, err
	}

	head, err := s.blocks.ResolveBlockNumber(ctx, rc, ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	if err != nil {
		return nil, err
	}

	switch f.Kind {
	case KindLog:
		toBlock := f.Params.ToBlock
		if toBlock == 0 || toBlock > head {
			toBlock = head
		}
		logs, err := s.mirror.GetLogs(ctx, rc, *f.LastQueried, toBlock, f.Params.Address, f.Params.Topics)
		if err != nil {
			return nil, err
		}
		next := head + 1
		if len(logs) > 0 {
			next = 0
			for _, l := range logs {
				if l.BlockNumber+1 > next {
					next = l.BlockNumber + 1
				}
			}
		}
		s.mu.Lock()
		f.LastQueried = uint64Ptr(next)
		s.mu.Unlock()
		return logs, nil
	default: // KindNewBlock
		var hashes []string
		from := *f.LastQueried + 1
		for n := from; n <= head; n++ {
			resp, found, err := s.mirror.GetBlock(ctx, rc, strconv.FormatUint(n, 10))
			if err != nil {
				return nil, err
			}
			if found {
				hashes = append(hashes, resp.Hash)
			}
		}
		s.mu.Lock()
		f.LastQueried = uint64Ptr(head)
		s.mu.Unlock()
		return hashes, nil
	}
}

func (s *Service) lookupAndTouch(id string) (*Filter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.filters[id]
	if !ok || time.Now().After(f.ExpiresAt) {
		delete(s.filters, id)
		return nil, jsonrpcerr.FilterNotFound()
	}
	f.ExpiresAt = time.Now().Add(s.ttl)
	return f, nil
}

func randomFilterID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}

func uint64Ptr(v uint64) *uint64 { return &v }
