package ethtypes

import "github.com/holiman/uint256"

// weibarsPerTinybar is 10^10: 1 HBAR = 10^8 tinybars = 10^18 weibars
// (spec.md GLOSSARY).
var weibarsPerTinybar = uint256.NewInt(10_000_000_000)

// WeibarsToTinybars floor-converts an Ethereum value (weibars) to tinybars,
// per spec.md §3 ContractCallRequest normalization rule for `value`.
func WeibarsToTinybars(weibars *uint256.Int) int64 {
	if weibars == nil {
		return 0
	}
	tinybars := new(uint256.Int).Div(weibars, weibarsPerTinybar)
	return int64(tinybars.Uint64())
}

// TinybarsToWeibars expands a Hedera tinybar amount to weibars, used when
// translating account balances back to Ethereum's wei-denominated
// eth_getBalance response.
func TinybarsToWeibars(tinybars int64) *uint256.Int {
	t := uint256.NewInt(uint64(tinybars))
	return new(uint256.Int).Mul(t, weibarsPerTinybar)
}
