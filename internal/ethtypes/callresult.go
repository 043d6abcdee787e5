package ethtypes

import "github.com/ethereum/go-ethereum/common/hexutil"

// CallResult is the tagged union `Hex(bytes)|Revert{data,reason}` a
// contract-call translation produces (spec.md §9).
type CallResult struct {
	Hex    hexutil.Bytes
	Revert bool
	Reason string
}

// Success wraps a successful eth_call/eth_estimateGas payload.
func Success(data []byte) CallResult {
	return CallResult{Hex: data}
}

// RevertedWith wraps a reverted call, carrying the revert data and a
// decoded reason string (spec.md §4.8 step 7).
func RevertedWith(data []byte, reason string) CallResult {
	return CallResult{Hex: data, Revert: true, Reason: reason}
}
