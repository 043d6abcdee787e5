// Package debug implements debug_traceTransaction (spec.md §4.9): a thin
// pass-through to the Mirror Node's contracts/results/{hash}/actions
// endpoint, reshaped into the requested tracer's output format. Only
// callTracer is supported; any other tracer type is UNSUPPORTED_METHOD.
package debug

import (
	"context"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// Action is a re-export of the Mirror Node action shape this service
// consumes.
type Action = mirrornode.ContractActionResponse

// MirrorClient is the slice of the Mirror Node client this service needs.
type MirrorClient interface {
	GetContractActions(ctx context.Context, rc relayctx.Context, hash string) ([]Action, bool, error)
}

// CallFrame is the callTracer-shaped output geth clients expect.
type CallFrame struct {
	Type    string      `json:"type"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Gas     string      `json:"gas"`
	GasUsed string      `json:"gasUsed"`
	Input   string      `json:"input"`
	Output  string      `json:"output"`
	Value   string      `json:"value"`
	Calls   []CallFrame `json:"calls,omitempty"`
}

// Service implements debug_traceTransaction.
type Service struct {
	mirror MirrorClient
}

// New builds a Service.
func New(mirror MirrorClient) *Service {
	return &Service{mirror: mirror}
}

// TraceTransaction reshapes the Mirror Node's flat action list into a
// callTracer-style nested call frame, using call_depth to build the call
// stack (spec.md §4.9). Only "callTracer" is supported.
func (s *Service) TraceTransaction(ctx context.Context, rc relayctx.Context, hash string, tracerType string) (*CallFrame, error) {
	if tracerType != "" && tracerType != "callTracer" {
		return nil, jsonrpcerr.UnsupportedMethod("debug_traceTransaction tracer=" + tracerType)
	}

	actions, found, err := s.mirror.GetContractActions(ctx, rc, hash)
	if err != nil {
		return nil, err
	}
	if !found || len(actions) == 0 {
		return nil, nil
	}

	return buildCallTree(actions), nil
}

// buildCallTree turns a depth-annotated, depth-first action list into a
// nested CallFrame tree: each action at depth d+1 immediately following an
// action at depth d is that action's child, continuing until depth drops
// back to d or below.
func buildCallTree(actions []Action) *CallFrame {
	root := toFrame(actions[0])
	stack := []*CallFrame{root}
	depths := []int{actions[0].CallDepth}

	for _, a := range actions[1:] {
		frame := toFrame(a)
		for len(depths) > 0 && a.CallDepth <= depths[len(depths)-1] {
			stack = stack[:len(stack)-1]
			depths = depths[:len(depths)-1]
		}
		if len(stack) == 0 {
			stack = []*CallFrame{root}
			depths = []int{actions[0].CallDepth}
		}
		parent := stack[len(stack)-1]
		parent.Calls = append(parent.Calls, *frame)
		stack = append(stack, &parent.Calls[len(parent.Calls)-1])
		depths = append(depths, a.CallDepth)
	}

	return root
}

func toFrame(a Action) *CallFrame {
	return &CallFrame{
		Type:    a.CallType,
		From:    a.From,
		To:      a.To,
		Gas:     hexUint(a.Gas),
		GasUsed: hexUint(a.GasUsed),
		Input:   a.Input,
		Output:  a.Output,
		Value:   hexUint(a.Value),
	}
}

func hexUint(v uint64) string {
	const hexDigits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = hexDigits[v%16]
		v /= 16
	}
	return "0x" + string(buf[i:])
}
