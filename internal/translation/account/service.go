// Package account implements the account-reading translation methods
// (spec.md §4.9): eth_getBalance, eth_getTransactionCount, eth_getCode.
package account

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ethtypes"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// MirrorClient is the slice of the Mirror Node client this service needs.
type MirrorClient interface {
	GetAccount(ctx context.Context, rc relayctx.Context, idOrAddress string) (*mirrornode.AccountResponse, bool, error)
	GetContract(ctx context.Context, rc relayctx.Context, addr string) (*mirrornode.ContractResponse, bool, error)
}

// BlockResolver is reused from the block translation service to keep the
// block-tag resolution logic in one place.
type BlockResolver interface {
	ResolveBlockNumber(ctx context.Context, rc relayctx.Context, tag ethtypes.BlockTag) (uint64, error)
}

// Service implements the account translation methods.
type Service struct {
	mirror MirrorClient
	blocks BlockResolver
}

// New builds a Service.
func New(mirror MirrorClient, blocks BlockResolver) *Service {
	return &Service{mirror: mirror, blocks: blocks}
}

// GetBalance implements eth_getBalance (spec.md §4.9): tinybar balances are
// expanded to weibars (tinybars * 10^10).
func (s *Service) GetBalance(ctx context.Context, rc relayctx.Context, address string, block ethtypes.BlockTag) (*hexutil.Big, error) {
	if _, err := s.blocks.ResolveBlockNumber(ctx, rc, block); err != nil {
		return nil, err
	}

	account, found, err := s.mirror.GetAccount(ctx, rc, address)
	if err != nil {
		return nil, err
	}
	if !found {
		zero := hexutil.Big(*ethtypes.TinybarsToWeibars(0).ToBig())
		return &zero, nil
	}
	weibars := hexutil.Big(*ethtypes.TinybarsToWeibars(account.Balance.Balance).ToBig())
	return &weibars, nil
}

// GetTransactionCount implements eth_getTransactionCount (spec.md §4.9),
// mapping Hedera's ethereum_nonce field directly.
func (s *Service) GetTransactionCount(ctx context.Context, rc relayctx.Context, address string, block ethtypes.BlockTag) (hexutil.Uint64, error) {
	if _, err := s.blocks.ResolveBlockNumber(ctx, rc, block); err != nil {
		return 0, err
	}
	account, found, err := s.mirror.GetAccount(ctx, rc, address)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return hexutil.Uint64(account.EthereumNonce), nil
}

// GetCode implements eth_getCode (spec.md §4.9), reading the contract's
// runtime bytecode; an absent contract returns "0x".
func (s *Service) GetCode(ctx context.Context, rc relayctx.Context, address string, block ethtypes.BlockTag) (hexutil.Bytes, error) {
	if _, err := s.blocks.ResolveBlockNumber(ctx, rc, block); err != nil {
		return nil, err
	}
	contract, found, err := s.mirror.GetContract(ctx, rc, address)
	if err != nil {
		return nil, err
	}
	if !found || contract.Bytecode == "" {
		return hexutil.Bytes{}, nil
	}
	trimmed := strings.TrimPrefix(contract.Bytecode, "0x")
	decoded, err := decodeHex(trimmed)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func decodeHex(s string) (hexutil.Bytes, error) {
	if s == "" {
		return hexutil.Bytes{}, nil
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hexutil.Decode("0x" + s)
}
