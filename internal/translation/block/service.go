// Package block implements the block/transaction/receipt translation
// service (spec.md §4.9): resolving Ethereum-shaped block, transaction and
// receipt envelopes from Mirror Node data.
package block

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ethtypes"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// MirrorClient is the slice of the Mirror Node client this service needs.
type MirrorClient interface {
	GetBlock(ctx context.Context, rc relayctx.Context, numberOrHash string) (*mirrornode.BlockResponse, bool, error)
	GetLatestBlock(ctx context.Context, rc relayctx.Context) (*mirrornode.BlockResponse, error)
	GetContractResults(ctx context.Context, rc relayctx.Context, fromBlock, toBlock uint64) ([]mirrornode.ContractResultResponse, error)
	GetContractResultByHash(ctx context.Context, rc relayctx.Context, hash string) (*mirrornode.ContractResultResponse, bool, error)
	GetLogs(ctx context.Context, rc relayctx.Context, fromBlock, toBlock uint64, address string, topics []string) ([]mirrornode.ContractLogResponse, error)
}

// Block is the Ethereum-shaped block envelope returned by
// eth_getBlockByNumber/Hash.
type Block struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         string         `json:"hash"`
	ParentHash   string         `json:"parentHash"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	GasUsed      hexutil.Uint64 `json:"gasUsed"`
	Transactions []any          `json:"transactions"`
}

// Receipt is the Ethereum-shaped transaction receipt.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockHash       string `json:"blockHash"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	From            string `json:"from"`
	To              string `json:"to"`
	Status          hexutil.Uint64 `json:"status"`
	GasUsed         hexutil.Uint64 `json:"gasUsed"`
	TransactionIndex hexutil.Uint64 `json:"transactionIndex"`
}

// Service implements the block/tx/receipt translation methods.
type Service struct {
	mirror MirrorClient
}

// New builds a Service.
func New(mirror MirrorClient) *Service {
	return &Service{mirror: mirror}
}

// ResolveBlockNumber implements spec.md §4.8 step 3's shared block-tag
// resolution, reused by every translation service that takes a block
// parameter.
func (s *Service) ResolveBlockNumber(ctx context.Context, rc relayctx.Context, tag ethtypes.BlockTag) (uint64, error) {
	switch tag.Kind {
	case ethtypes.TagEarliest:
		return 0, nil
	case ethtypes.TagNumber:
		return tag.Number, nil
	default: // latest, pending, safe, finalized all alias to current head
		latest, err := s.mirror.GetLatestBlock(ctx, rc)
		if err != nil {
			return 0, err
		}
		return latest.Number, nil
	}
}

// GetBlockByNumber implements eth_getBlockByNumber (spec.md §4.9).
func (s *Service) GetBlockByNumber(ctx context.Context, rc relayctx.Context, tag ethtypes.BlockTag, fullTx bool) (*Block, error) {
	number, err := s.ResolveBlockNumber(ctx, rc, tag)
	if err != nil {
		return nil, err
	}
	resp, found, err := s.mirror.GetBlock(ctx, rc, strconv.FormatUint(number, 10))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s.shapeBlock(ctx, rc, resp, fullTx)
}

// GetBlockByHash implements eth_getBlockByHash (spec.md §4.9).
func (s *Service) GetBlockByHash(ctx context.Context, rc relayctx.Context, hash string, fullTx bool) (*Block, error) {
	resp, found, err := s.mirror.GetBlock(ctx, rc, hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s.shapeBlock(ctx, rc, resp, fullTx)
}

func (s *Service) shapeBlock(ctx context.Context, rc relayctx.Context, resp *mirrornode.BlockResponse, fullTx bool) (*Block, error) {
	results, err := s.mirror.GetContractResults(ctx, rc, resp.Number, resp.Number)
	if err != nil {
		return nil, err
	}

	txs := make([]any, 0, len(results))
	for _, r := range results {
		if fullTx {
			txs = append(txs, shapeReceipt(r))
		} else {
			txs = append(txs, r.Hash)
		}
	}

	return &Block{
		Number:       hexutil.Uint64(resp.Number),
		Hash:         resp.Hash,
		ParentHash:   resp.PreviousHash,
		GasUsed:      hexutil.Uint64(resp.GasUsed),
		Transactions: txs,
	}, nil
}

// GetTransactionReceipt implements eth_getTransactionReceipt (spec.md §4.9).
func (s *Service) GetTransactionReceipt(ctx context.Context, rc relayctx.Context, hash string) (*Receipt, error) {
	result, found, err := s.mirror.GetContractResultByHash(ctx, rc, hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	receipt := shapeReceipt(*result)
	return &receipt, nil
}

// GetTransactionByHash implements eth_getTransactionByHash (spec.md §4.9).
func (s *Service) GetTransactionByHash(ctx context.Context, rc relayctx.Context, hash string) (*mirrornode.ContractResultResponse, error) {
	result, found, err := s.mirror.GetContractResultByHash(ctx, rc, hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return result, nil
}

func shapeReceipt(r mirrornode.ContractResultResponse) Receipt {
	status := uint64(0)
	if strings.EqualFold(r.Status, "0x1") || strings.EqualFold(r.Status, "SUCCESS") {
		status = 1
	}
	return Receipt{
		TransactionHash:  r.Hash,
		BlockHash:        r.BlockHash,
		BlockNumber:      hexutil.Uint64(r.BlockNumber),
		From:             r.From,
		To:               r.To,
		Status:           hexutil.Uint64(status),
		GasUsed:          hexutil.Uint64(r.GasUsed),
		TransactionIndex: hexutil.Uint64(r.TransactionIndex),
	}
}

// GetLogs implements the top-level eth_getLogs (spec.md §4.9), distinct
// from the filter-backed eth_getFilterLogs: it resolves the block range
// itself and reads directly from the Mirror Node, with no persisted
// Filter entity or last_queried bookkeeping.
func (s *Service) GetLogs(ctx context.Context, rc relayctx.Context, fromBlock, toBlock ethtypes.BlockTag, address string, topics []string) ([]mirrornode.ContractLogResponse, error) {
	fromNumber, toNumber, err := s.ValidateBlockRange(ctx, rc, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	return s.mirror.GetLogs(ctx, rc, fromNumber, toNumber, address, topics)
}

// ValidateBlockRange implements the filter service's shared block-range
// check (spec.md §4.6 new_filter): fromBlock ≤ toBlock, each resolved
// against current chain head.
func (s *Service) ValidateBlockRange(ctx context.Context, rc relayctx.Context, from, to ethtypes.BlockTag) (fromNumber, toNumber uint64, err error) {
	fromNumber, err = s.ResolveBlockNumber(ctx, rc, from)
	if err != nil {
		return 0, 0, err
	}
	toNumber, err = s.ResolveBlockNumber(ctx, rc, to)
	if err != nil {
		return 0, 0, err
	}
	if fromNumber > toNumber {
		return 0, 0, jsonrpcerr.InvalidBlockRange()
	}
	return fromNumber, toNumber, nil
}
