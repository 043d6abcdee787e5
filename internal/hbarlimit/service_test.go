package hbarlimit

import (
	"context"
	"testing"
	"time"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
	"github.com/stretchr/testify/require"
)

func fixedResolver(plan *Plan) Resolver {
	return func(string, string) *Plan { return plan }
}

func TestShouldLimitPreemptiveRefusesWhenInsufficientBudget(t *testing.T) {
	plan := &Plan{PlanID: "p1", LimitTinybars: 1000, Window: time.Hour, WindowStart: time.Now()}
	svc := New(fixedResolver(plan), nil)

	estimate := int64(500)
	limited, err := svc.ShouldLimit(context.Background(), "", "", "EthereumTransaction", "0xabc", relayctx.New(""), &estimate)
	require.NoError(t, err)
	require.False(t, limited)

	require.NoError(t, svc.AddExpense(context.Background(), 700, "0xabc", relayctx.New("")))

	limited, err = svc.ShouldLimit(context.Background(), "", "", "EthereumTransaction", "0xabc", relayctx.New(""), &estimate)
	require.NoError(t, err)
	require.True(t, limited, "700 spent + 500 estimate > 1000 limit")
}

func TestWindowRollsForwardLazily(t *testing.T) {
	plan := &Plan{PlanID: "p1", LimitTinybars: 100, Window: 10 * time.Millisecond, WindowStart: time.Now()}
	svc := New(fixedResolver(plan), nil)

	require.NoError(t, svc.AddExpense(context.Background(), 100, "0xabc", relayctx.New("")))

	limited, err := svc.ShouldLimit(context.Background(), "", "", "", "0xabc", relayctx.New(""), nil)
	require.NoError(t, err)
	require.True(t, limited)

	time.Sleep(20 * time.Millisecond)

	limited, err = svc.ShouldLimit(context.Background(), "", "", "", "0xabc", relayctx.New(""), nil)
	require.NoError(t, err)
	require.False(t, limited, "window should have reset spend to zero")
}

func TestNoResolvedPlanNeverLimits(t *testing.T) {
	svc := New(fixedResolver(nil), nil)
	limited, err := svc.ShouldLimit(context.Background(), "", "", "", "0xabc", relayctx.New(""), nil)
	require.NoError(t, err)
	require.False(t, limited)
}
