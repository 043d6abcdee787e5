package ethtypes

import (
	"strconv"
	"strings"
)

// CanonicalChainID implements spec.md §8 scenario 1: a decimal integer
// input becomes 0x+lowercase-hex; a 0x-prefixed hex input passes through
// lowercased; anything else yields the literal "0xNaN", preserved
// downstream per spec.md §9 Open Question (a).
func CanonicalChainID(raw string) string {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		hexPart := raw[2:]
		if n, err := strconv.ParseUint(hexPart, 16, 64); err == nil {
			return "0x" + strconv.FormatUint(n, 16)
		}
		return "0xNaN"
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return "0x" + strconv.FormatInt(n, 16)
	}
	return "0xNaN"
}
