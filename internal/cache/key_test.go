package cache

import (
	"testing"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
	"github.com/stretchr/testify/require"
)

func TestKeySkipsRequestContextArguments(t *testing.T) {
	rc := relayctx.New("127.0.0.1")
	withCtx := Key("eth_call", []any{map[string]any{"to": "0xabc"}, rc})
	withoutCtx := Key("eth_call", []any{map[string]any{"to": "0xabc"}})
	require.Equal(t, withoutCtx, withCtx)
}

func TestKeyIsStableUnderFieldOrder(t *testing.T) {
	a := Key("eth_call", []any{map[string]any{"to": "0xabc", "gas": "0x1"}})
	b := Key("eth_call", []any{map[string]any{"gas": "0x1", "to": "0xabc"}})
	require.Equal(t, a, b)
}

func TestKeyDiffersForDifferentMethods(t *testing.T) {
	a := Key("eth_call", []any{"latest"})
	b := Key("eth_getBalance", []any{"latest"})
	require.NotEqual(t, a, b)
}
