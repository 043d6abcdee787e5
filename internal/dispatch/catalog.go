// Package dispatch implements the method dispatcher (spec.md §4.1):
// registration of namespace_method handlers, parameter schema validation
// against a named-type catalog, read-only mode enforcement, and the
// caching/rate-limit decorators applied at registration time.
package dispatch

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParamType names one of the catalog's parameter kinds (spec.md §4.1).
type ParamType string

const (
	TypeAddress             ParamType = "address"
	TypeBlockNumber          ParamType = "blockNumber"
	TypeBlockHash            ParamType = "blockHash"
	TypeBlockNumberOrHash    ParamType = "blockNumber|blockHash"
	TypeTransactionHash      ParamType = "transactionHash"
	TypeHex                  ParamType = "hex"
	TypeHex64                ParamType = "hex64"
	TypeTransaction          ParamType = "transaction"
	TypeFilter               ParamType = "filter"
	TypeTracerType           ParamType = "tracerType"
	TypeTracerConfig         ParamType = "tracerConfig"
	TypeBoolean              ParamType = "boolean"
	TypeArray                ParamType = "array"
)

var (
	addressRE    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	hex32RE      = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	hexRE        = regexp.MustCompile(`^0x[0-9a-fA-F]*$`)
	blockNumberRE = regexp.MustCompile(`^(latest|earliest|pending|safe|finalized|0x[0-9a-fA-F]+)$`)
)

// checkType reports whether raw (a decoded JSON value) satisfies t. Object
// and array shapes (transaction, filter, tracerConfig) are only checked
// for their JSON kind — field-level validation belongs to the translation
// service that consumes them.
func checkType(t ParamType, raw any) bool {
	switch t {
	case TypeAddress:
		s, ok := raw.(string)
		return ok && addressRE.MatchString(s)
	case TypeBlockNumber:
		s, ok := raw.(string)
		return ok && blockNumberRE.MatchString(s)
	case TypeBlockHash:
		s, ok := raw.(string)
		return ok && hex32RE.MatchString(s)
	case TypeBlockNumberOrHash:
		return checkType(TypeBlockNumber, raw) || checkType(TypeBlockHash, raw)
	case TypeTransactionHash:
		s, ok := raw.(string)
		return ok && hex32RE.MatchString(s)
	case TypeHex:
		s, ok := raw.(string)
		return ok && hexRE.MatchString(s)
	case TypeHex64:
		s, ok := raw.(string)
		return ok && hex32RE.MatchString(s)
	case TypeTransaction, TypeFilter, TypeTracerConfig:
		_, ok := raw.(map[string]any)
		return ok
	case TypeTracerType:
		s, ok := raw.(string)
		return ok && (s == "callTracer" || s == "prestateTracer" || s == "opcodeLogger")
	case TypeBoolean:
		_, ok := raw.(bool)
		return ok
	case TypeArray:
		_, ok := raw.([]any)
		return ok
	default:
		return false
	}
}

// variants splits a compound type name like "blockNumber|blockHash".
func variants(t ParamType) []ParamType {
	parts := strings.Split(string(t), "|")
	out := make([]ParamType, len(parts))
	for i, p := range parts {
		out[i] = ParamType(p)
	}
	return out
}

func checkAny(t ParamType, raw any) bool {
	for _, v := range variants(t) {
		if checkType(v, raw) {
			return true
		}
	}
	return false
}

// decode re-marshals a positional argument into a generic JSON value so
// the catalog checks work uniformly whether params arrived as []any or as
// json.RawMessage.
func decode(arg any) any {
	switch v := arg.(type) {
	case json.RawMessage:
		var generic any
		_ = json.Unmarshal(v, &generic)
		return generic
	default:
		return v
	}
}
