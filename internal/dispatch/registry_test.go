package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ratelimit"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

func echoHandler(_ context.Context, _ relayctx.Context, params []any) (any, error) {
	if len(params) == 0 {
		return "ok", nil
	}
	return params[0], nil
}

func TestExecuteReturnsMethodNotFound(t *testing.T) {
	d := New(false, nil, nil)
	_, err := d.Execute(context.Background(), "eth_missing", nil, relayctx.Context{})
	require.Error(t, err)
}

func TestExecuteRejectsMutatingMethodsInReadOnlyMode(t *testing.T) {
	d := New(true, nil, nil)
	d.Register(Registration{Method: "eth_sendRawTransaction", Handler: echoHandler, Mutating: true})

	_, err := d.Execute(context.Background(), "eth_sendRawTransaction", []any{"0xdeadbeef"}, relayctx.Context{})
	require.Error(t, err)
}

func TestExecuteValidatesRequiredParameters(t *testing.T) {
	d := New(false, nil, nil)
	d.Register(Registration{
		Method:  "eth_getBalance",
		Handler: echoHandler,
		Schema:  []ParamSpec{{Type: TypeAddress, Required: true}, {Type: TypeBlockNumberOrHash, Required: false}},
	})

	_, err := d.Execute(context.Background(), "eth_getBalance", nil, relayctx.Context{})
	require.Error(t, err)

	_, err = d.Execute(context.Background(), "eth_getBalance", []any{"not-an-address"}, relayctx.Context{})
	require.Error(t, err)

	result, err := d.Execute(context.Background(), "eth_getBalance", []any{"0x000000000000000000000000000000000000dead"}, relayctx.Context{})
	require.NoError(t, err)
	require.Equal(t, "0x000000000000000000000000000000000000dead", result)
}

func TestExecuteAcceptsCompoundTypeVariants(t *testing.T) {
	d := New(false, nil, nil)
	d.Register(Registration{
		Method:  "eth_getBlockByHash",
		Handler: echoHandler,
		Schema:  []ParamSpec{{Type: TypeBlockNumberOrHash, Required: true}},
	})

	_, err := d.Execute(context.Background(), "eth_getBlockByHash", []any{"latest"}, relayctx.Context{})
	require.NoError(t, err)

	fullHash := "0x1111111111111111111111111111111111111111111111111111111111111111"[:66]
	_, err = d.Execute(context.Background(), "eth_getBlockByHash", []any{fullHash}, relayctx.Context{})
	require.NoError(t, err)
}

func TestExecuteAppliesRateLimit(t *testing.T) {
	store := ratelimit.NewInProcessStore()
	d := New(false, store, nil)
	d.Register(Registration{
		Method:    "eth_call",
		Handler:   echoHandler,
		RateLimit: &RateLimitPolicy{Limit: 1, Window: time.Second},
	})

	_, err := d.Execute(context.Background(), "eth_call", []any{"x"}, relayctx.Context{IP: "1.2.3.4"})
	require.NoError(t, err)

	_, err = d.Execute(context.Background(), "eth_call", []any{"x"}, relayctx.Context{IP: "1.2.3.4"})
	require.Error(t, err)
}

func TestRegisterPanicsOnDuplicateMethod(t *testing.T) {
	d := New(false, nil, nil)
	d.Register(Registration{Method: "eth_call", Handler: echoHandler})

	require.Panics(t, func() {
		d.Register(Registration{Method: "eth_call", Handler: echoHandler})
	})
}
