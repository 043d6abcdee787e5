package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ethtypes"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

type fakeMirror struct {
	blocksByKey map[string]*mirrornode.BlockResponse
	latest      *mirrornode.BlockResponse
	results     []mirrornode.ContractResultResponse
	byHash      map[string]*mirrornode.ContractResultResponse
	logs        []mirrornode.ContractLogResponse
}

func (f *fakeMirror) GetBlock(_ context.Context, _ relayctx.Context, numberOrHash string) (*mirrornode.BlockResponse, bool, error) {
	b, ok := f.blocksByKey[numberOrHash]
	return b, ok, nil
}

func (f *fakeMirror) GetLatestBlock(context.Context, relayctx.Context) (*mirrornode.BlockResponse, error) {
	return f.latest, nil
}

func (f *fakeMirror) GetContractResults(context.Context, relayctx.Context, uint64, uint64) ([]mirrornode.ContractResultResponse, error) {
	return f.results, nil
}

func (f *fakeMirror) GetContractResultByHash(_ context.Context, _ relayctx.Context, hash string) (*mirrornode.ContractResultResponse, bool, error) {
	r, ok := f.byHash[hash]
	return r, ok, nil
}

func (f *fakeMirror) GetLogs(context.Context, relayctx.Context, uint64, uint64, string, []string) ([]mirrornode.ContractLogResponse, error) {
	return f.logs, nil
}

func TestResolveBlockNumberEarliestIsZero(t *testing.T) {
	svc := New(&fakeMirror{})
	n, err := svc.ResolveBlockNumber(context.Background(), relayctx.Context{}, ethtypes.BlockTag{Kind: ethtypes.TagEarliest})
	require.NoError(t, err)
	require.Equal(t, uint64(0), n)
}

func TestResolveBlockNumberLatestUsesHead(t *testing.T) {
	svc := New(&fakeMirror{latest: &mirrornode.BlockResponse{Number: 42}})
	n, err := svc.ResolveBlockNumber(context.Background(), relayctx.Context{}, ethtypes.BlockTag{Kind: ethtypes.TagLatest})
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
}

func TestGetBlockByNumberShapesTransactionsAsHashesByDefault(t *testing.T) {
	mirror := &fakeMirror{
		blocksByKey: map[string]*mirrornode.BlockResponse{"10": {Number: 10, Hash: "0xblock"}},
		results:     []mirrornode.ContractResultResponse{{Hash: "0xtx1"}},
	}
	svc := New(mirror)

	b, err := svc.GetBlockByNumber(context.Background(), relayctx.Context{}, ethtypes.BlockTag{Kind: ethtypes.TagNumber, Number: 10}, false)
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Equal(t, []any{"0xtx1"}, b.Transactions)
}

func TestGetBlockByNumberReturnsNilWhenNotFound(t *testing.T) {
	svc := New(&fakeMirror{blocksByKey: map[string]*mirrornode.BlockResponse{}})
	b, err := svc.GetBlockByNumber(context.Background(), relayctx.Context{}, ethtypes.BlockTag{Kind: ethtypes.TagNumber, Number: 99}, false)
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestShapeReceiptMapsSuccessStatus(t *testing.T) {
	mirror := &fakeMirror{byHash: map[string]*mirrornode.ContractResultResponse{
		"0xabc": {Hash: "0xabc", Status: "SUCCESS"},
	}}
	svc := New(mirror)

	receipt, err := svc.GetTransactionReceipt(context.Background(), relayctx.Context{}, "0xabc")
	require.NoError(t, err)
	require.Equal(t, uint64(1), uint64(receipt.Status))
}

func TestGetLogsResolvesRangeAndDelegatesToMirror(t *testing.T) {
	mirror := &fakeMirror{
		latest: &mirrornode.BlockResponse{Number: 50},
		logs:   []mirrornode.ContractLogResponse{{BlockNumber: 12}},
	}
	svc := New(mirror)

	logs, err := svc.GetLogs(context.Background(), relayctx.Context{},
		ethtypes.BlockTag{Kind: ethtypes.TagNumber, Number: 10},
		ethtypes.BlockTag{Kind: ethtypes.TagLatest},
		"0xcontract", nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestValidateBlockRangeRejectsInverted(t *testing.T) {
	mirror := &fakeMirror{latest: &mirrornode.BlockResponse{Number: 10}}
	svc := New(mirror)

	_, _, err := svc.ValidateBlockRange(context.Background(), relayctx.Context{},
		ethtypes.BlockTag{Kind: ethtypes.TagNumber, Number: 5},
		ethtypes.BlockTag{Kind: ethtypes.TagNumber, Number: 3})
	require.Error(t, err)
}
