package fee

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

type fakeMirror struct {
	fees *mirrornode.NetworkFeesResponse
}

func (f *fakeMirror) GetNetworkFees(context.Context, relayctx.Context) (*mirrornode.NetworkFeesResponse, error) {
	return f.fees, nil
}

func TestGasPriceWeibarsReadsFirstFee(t *testing.T) {
	mirror := &fakeMirror{fees: &mirrornode.NetworkFeesResponse{Fees: []struct {
		Gas             uint64 `json:"gas"`
		TransactionType string `json:"transaction_type"`
	}{{Gas: 710_000_000_000, TransactionType: "EthereumTransaction"}}}}
	svc := New(mirror, 10, true)

	price, err := svc.GasPriceWeibars(context.Background(), relayctx.Context{})
	require.NoError(t, err)
	require.Equal(t, uint64(710_000_000_000), price)
}

func TestFeeHistoryClampsBlockCountToMax(t *testing.T) {
	mirror := &fakeMirror{fees: &mirrornode.NetworkFeesResponse{}}
	svc := New(mirror, 3, true)

	history, err := svc.FeeHistory(context.Background(), relayctx.Context{}, 50, 100, nil)
	require.NoError(t, err)
	require.Len(t, history.BaseFeePerGas, 4) // blockCount+1
}

func TestFeeHistoryIncludesRewardsWhenPercentilesRequested(t *testing.T) {
	mirror := &fakeMirror{fees: &mirrornode.NetworkFeesResponse{}}
	svc := New(mirror, 10, true)

	history, err := svc.FeeHistory(context.Background(), relayctx.Context{}, 2, 100, []float64{25, 75})
	require.NoError(t, err)
	require.Len(t, history.Reward, 2)
	require.Len(t, history.Reward[0], 2)
}
