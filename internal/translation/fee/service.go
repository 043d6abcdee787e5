// Package fee implements the fee-related translation methods (spec.md
// §4.9): eth_gasPrice and eth_feeHistory. eth_estimateGas is implemented by
// the contract package.
package fee

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

func newBigFromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// MirrorClient is the slice of the Mirror Node client this service needs.
type MirrorClient interface {
	GetNetworkFees(ctx context.Context, rc relayctx.Context) (*mirrornode.NetworkFeesResponse, error)
}

// FeeHistory is the Ethereum-shaped eth_feeHistory response.
type FeeHistory struct {
	OldestBlock   hexutil.Uint64   `json:"oldestBlock"`
	BaseFeePerGas []hexutil.Big    `json:"baseFeePerGas"`
	GasUsedRatio  []float64        `json:"gasUsedRatio"`
	Reward        [][]hexutil.Big  `json:"reward,omitempty"`
}

// Service implements the fee translation methods.
type Service struct {
	mirror            MirrorClient
	maxResults        uint64
	fixedHistory      bool
}

// New builds a Service. maxResults bounds eth_feeHistory's blockCount
// (FEE_HISTORY_MAX_RESULTS); fixedHistory (ETH_FEE_HISTORY_FIXED) is
// stored but does not change FeeHistory's output.
func New(mirror MirrorClient, maxResults uint64, fixedHistory bool) *Service {
	return &Service{mirror: mirror, maxResults: maxResults, fixedHistory: fixedHistory}
}

// GasPriceWeibars returns the current network gas price, expressed in
// weibars, derived from the Mirror Node's network/fees endpoint.
func (s *Service) GasPriceWeibars(ctx context.Context, rc relayctx.Context) (uint64, error) {
	fees, err := s.mirror.GetNetworkFees(ctx, rc)
	if err != nil {
		return 0, err
	}
	for _, f := range fees.Fees {
		if f.TransactionType == "EthereumTransaction" || f.TransactionType == "" {
			return f.Gas, nil
		}
	}
	if len(fees.Fees) > 0 {
		return fees.Fees[0].Gas, nil
	}
	return 0, nil
}

// FeeHistory implements eth_feeHistory (spec.md §4.9). blockCount is
// clamped to maxResults. A flat reward/baseFee series is always
// synthesized from the current gas price, whether or not fixedHistory is
// set; historical blocks are not read, matching Hedera's lack of an
// EIP-1559 base-fee market.
func (s *Service) FeeHistory(ctx context.Context, rc relayctx.Context, blockCount uint64, newestBlock uint64, rewardPercentiles []float64) (*FeeHistory, error) {
	if blockCount > s.maxResults {
		blockCount = s.maxResults
	}
	if blockCount == 0 {
		blockCount = 1
	}

	gasPrice, err := s.GasPriceWeibars(ctx, rc)
	if err != nil {
		return nil, err
	}

	baseFees := make([]hexutil.Big, blockCount+1)
	ratios := make([]float64, blockCount)
	for i := range baseFees {
		baseFees[i] = hexutil.Big(*newBigFromUint64(gasPrice))
	}

	var oldest uint64
	if newestBlock+1 >= blockCount {
		oldest = newestBlock + 1 - blockCount
	}

	history := &FeeHistory{
		OldestBlock:   hexutil.Uint64(oldest),
		BaseFeePerGas: baseFees,
		GasUsedRatio:  ratios,
	}

	if len(rewardPercentiles) > 0 {
		row := make([]hexutil.Big, len(rewardPercentiles))
		for i := range row {
			row[i] = hexutil.Big(*newBigFromUint64(gasPrice))
		}
		rewards := make([][]hexutil.Big, blockCount)
		for i := range rewards {
			rewards[i] = row
		}
		history.Reward = rewards
	}

	return history, nil
}
