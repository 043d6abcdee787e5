package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ethtypes"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

type fakeMirror struct {
	account  *mirrornode.AccountResponse
	found    bool
	contract *mirrornode.ContractResponse
	cFound   bool
}

func (f *fakeMirror) GetAccount(context.Context, relayctx.Context, string) (*mirrornode.AccountResponse, bool, error) {
	return f.account, f.found, nil
}

func (f *fakeMirror) GetContract(context.Context, relayctx.Context, string) (*mirrornode.ContractResponse, bool, error) {
	return f.contract, f.cFound, nil
}

type fakeBlocks struct{}

func (fakeBlocks) ResolveBlockNumber(context.Context, relayctx.Context, ethtypes.BlockTag) (uint64, error) {
	return 10, nil
}

func TestGetBalanceExpandsTinybarsToWeibars(t *testing.T) {
	mirror := &fakeMirror{account: &mirrornode.AccountResponse{}, found: true}
	mirror.account.Balance.Balance = 100
	svc := New(mirror, fakeBlocks{})

	balance, err := svc.GetBalance(context.Background(), relayctx.Context{}, "0.0.1001", ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	require.NoError(t, err)
	require.Equal(t, "1000000000000", balance.ToInt().String())
}

func TestGetBalanceReturnsZeroWhenAccountNotFound(t *testing.T) {
	mirror := &fakeMirror{found: false}
	svc := New(mirror, fakeBlocks{})

	balance, err := svc.GetBalance(context.Background(), relayctx.Context{}, "0.0.9999", ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	require.NoError(t, err)
	require.Equal(t, "0", balance.ToInt().String())
}

func TestGetTransactionCountMapsEthereumNonce(t *testing.T) {
	mirror := &fakeMirror{account: &mirrornode.AccountResponse{EthereumNonce: 7}, found: true}
	svc := New(mirror, fakeBlocks{})

	count, err := svc.GetTransactionCount(context.Background(), relayctx.Context{}, "0.0.1001", ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	require.NoError(t, err)
	require.Equal(t, uint64(7), uint64(count))
}

func TestGetCodeReturnsEmptyWhenContractNotFound(t *testing.T) {
	mirror := &fakeMirror{cFound: false}
	svc := New(mirror, fakeBlocks{})

	code, err := svc.GetCode(context.Background(), relayctx.Context{}, "0x00000000000000000000000000000000000abc", ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	require.NoError(t, err)
	require.Empty(t, code)
}

func TestGetCodeDecodesBytecode(t *testing.T) {
	mirror := &fakeMirror{contract: &mirrornode.ContractResponse{Bytecode: "0x6001"}, cFound: true}
	svc := New(mirror, fakeBlocks{})

	code, err := svc.GetCode(context.Background(), relayctx.Context{}, "0x00000000000000000000000000000000000abc", ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01}, []byte(code))
}
