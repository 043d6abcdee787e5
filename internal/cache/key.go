package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// Key builds the CacheKey invariant from spec.md §3: the method name joined
// with a canonical serialization of the non-context arguments. Arguments
// whose type is relayctx.Context are skipped; two calls with semantically
// equal arguments must produce identical keys, so objects are re-marshaled
// through a key-sorted map before hashing.
func Key(method string, args []any) string {
	filtered := make([]any, 0, len(args))
	for _, a := range args {
		if relayctx.IsContextType(a) {
			continue
		}
		filtered = append(filtered, canonicalize(a))
	}

	payload, _ := json.Marshal(filtered)
	sum := sha256.Sum256(payload)
	return method + ":" + hex.EncodeToString(sum[:])
}

// canonicalize round-trips v through JSON so struct field order and map key
// order never affect the resulting digest.
func canonicalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return v
	}
	return sortKeys(generic)
}

func sortKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]keyValue, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, keyValue{Key: k, Value: sortKeys(t[k])})
		}
		return ordered
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortKeys(e)
		}
		return out
	default:
		return t
	}
}

type keyValue struct {
	Key   string `json:"k"`
	Value any    `json:"v"`
}
