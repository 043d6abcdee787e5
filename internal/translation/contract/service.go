// Package contract implements the contract-execution translation service
// (spec.md §4.8): normalizing a JSON-RPC call request, resolving its block
// tag, and delegating to the Mirror Node /contracts/call endpoint.
package contract

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ethtypes"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

var addressRE = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// CallRequest is the as-received JSON-RPC call object, before
// normalization (spec.md §3 ContractCallRequest).
type CallRequest struct {
	From     string
	To       string
	Data     string
	Input    string
	Gas      string
	GasPrice string
	Value    string
}

// BlockResolver resolves a block tag to a concrete, current head-aware
// block number (spec.md §4.8 step 3).
type BlockResolver interface {
	ResolveBlockNumber(ctx context.Context, rc relayctx.Context, tag ethtypes.BlockTag) (uint64, error)
}

// MirrorClient is the slice of the Mirror Node client this service needs.
type MirrorClient interface {
	Call(ctx context.Context, rc relayctx.Context, req mirrornode.ContractCallRequest) (*mirrornode.ContractCallResponse, error)
	GetNetworkFees(ctx context.Context, rc relayctx.Context) (*mirrornode.NetworkFeesResponse, error)
}

// Service implements contract_service.call (spec.md §4.8).
type Service struct {
	mirror       MirrorClient
	blocks       BlockResolver
	maxGasPerSec uint64
	operatorEvm  string // populated from the operator's derived EVM address
}

// New builds a Service. operatorEvmAddress backs the "from" default when a
// caller sends value without a from address (spec.md §3).
func New(mirror MirrorClient, blocks BlockResolver, maxGasPerSec uint64, operatorEvmAddress string) *Service {
	return &Service{mirror: mirror, blocks: blocks, maxGasPerSec: maxGasPerSec, operatorEvm: operatorEvmAddress}
}

// Call implements spec.md §4.8 steps 1-11.
func (s *Service) Call(ctx context.Context, rc relayctx.Context, req CallRequest, blockTag ethtypes.BlockTag) (ethtypes.CallResult, error) {
	normalized, err := s.normalize(ctx, rc, req)
	if err != nil {
		return ethtypes.CallResult{}, err
	}

	if normalized.To != "" && !addressRE.MatchString(normalized.To) {
		return ethtypes.CallResult{}, jsonrpcerr.InvalidContractAddress(normalized.To)
	}
	if normalized.To == zeroAddress {
		return ethtypes.CallResult{}, jsonrpcerr.InvalidContractAddress(normalized.To)
	}

	blockNumber, err := s.blocks.ResolveBlockNumber(ctx, rc, blockTag)
	if err != nil {
		return ethtypes.CallResult{}, err
	}

	if normalized.Gas > s.maxGasPerSec {
		normalized.Gas = s.maxGasPerSec
	}

	mirrorReq := mirrornode.ContractCallRequest{
		From:     normalized.From,
		To:       normalized.To,
		Data:     normalized.Data,
		Gas:      normalized.Gas,
		GasPrice: normalized.GasPrice,
		Value:    normalized.Value,
		Block:    strconv.FormatUint(blockNumber, 10),
	}

	resp, err := s.mirror.Call(ctx, rc, mirrorReq)
	if err != nil {
		return s.translateError(err)
	}
	if resp.Result == "" {
		return ethtypes.Success([]byte{}), nil
	}
	data, decodeErr := hex.DecodeString(strings.TrimPrefix(resp.Result, "0x"))
	if decodeErr != nil {
		return ethtypes.CallResult{}, fmt.Errorf("decode contracts/call result: %w", decodeErr)
	}
	return ethtypes.Success(data), nil
}

// EstimateGas implements eth_estimateGas (spec.md §4.9): the same
// normalize -> resolve block -> POST /contracts/call pipeline as Call,
// requesting estimation and reading result.gas_used instead of
// result.bytes.
func (s *Service) EstimateGas(ctx context.Context, rc relayctx.Context, req CallRequest, blockTag ethtypes.BlockTag) (uint64, error) {
	normalized, err := s.normalize(ctx, rc, req)
	if err != nil {
		return 0, err
	}

	if normalized.To != "" && !addressRE.MatchString(normalized.To) {
		return 0, jsonrpcerr.InvalidContractAddress(normalized.To)
	}

	blockNumber, err := s.blocks.ResolveBlockNumber(ctx, rc, blockTag)
	if err != nil {
		return 0, err
	}

	if normalized.Gas > s.maxGasPerSec {
		normalized.Gas = s.maxGasPerSec
	}

	mirrorReq := mirrornode.ContractCallRequest{
		From:     normalized.From,
		To:       normalized.To,
		Data:     normalized.Data,
		Gas:      normalized.Gas,
		GasPrice: normalized.GasPrice,
		Value:    normalized.Value,
		Block:    strconv.FormatUint(blockNumber, 10),
		Estimate: true,
	}

	resp, err := s.mirror.Call(ctx, rc, mirrorReq)
	if err != nil {
		if _, translateErr := s.translateError(err); translateErr != nil {
			return 0, translateErr
		}
		// translateError mapped this to an empty success (e.g. an
		// INVALID_TRANSACTION classification) rather than a JSON-RPC
		// error: no gas_used is available, so report zero.
		return 0, nil
	}
	return resp.GasUsed, nil
}

// translateError implements spec.md §4.8 steps 7-11: branch on the typed
// MirrorNodeClientError classification.
func (s *Service) translateError(err error) (ethtypes.CallResult, error) {
	var mnErr *mirrornode.ClientError
	if !asMirrorError(err, &mnErr) {
		return ethtypes.CallResult{}, err
	}

	switch {
	case mnErr.IsContractRevert():
		return ethtypes.CallResult{}, jsonrpcerr.ContractRevert(extractRevertReason(mnErr.Body), mnErr.Body)
	case mnErr.IsInvalidTransaction():
		return ethtypes.Success([]byte{}), nil
	case mnErr.IsRateLimit():
		return ethtypes.CallResult{}, mnErr
	case mnErr.IsNotSupported():
		return ethtypes.CallResult{}, mnErr
	default:
		return ethtypes.CallResult{}, mnErr
	}
}

func asMirrorError(err error, target **mirrornode.ClientError) bool {
	me, ok := err.(*mirrornode.ClientError)
	if ok {
		*target = me
	}
	return ok
}

// extractRevertReason is a best-effort decode of the error body's detail
// field; the Mirror Node error shape itself is consumed by classifyError,
// so this just mirrors the "detail" string it already captured in Body.
func extractRevertReason(body string) string {
	const marker = `"detail":"`
	idx := strings.Index(body, marker)
	if idx < 0 {
		return "reverted"
	}
	rest := body[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "reverted"
	}
	return rest[:end]
}

// normalize applies spec.md §3's ContractCallRequest rules.
func (s *Service) normalize(ctx context.Context, rc relayctx.Context, req CallRequest) (normalizedRequest, error) {
	var out normalizedRequest
	out.From = req.From
	out.To = req.To

	data := req.Data
	if req.Input != "" {
		data = req.Input
	}
	out.Data = data

	value, err := parseHexUint256(req.Value)
	if err != nil {
		return normalizedRequest{}, jsonrpcerr.InvalidParameter(0, "invalid value: "+err.Error())
	}
	out.Value = uint64(ethtypes.WeibarsToTinybars(value))

	if req.Gas != "" {
		gas, err := parseHexUint64(req.Gas)
		if err != nil {
			return normalizedRequest{}, jsonrpcerr.InvalidParameter(0, "invalid gas: "+err.Error())
		}
		out.Gas = gas
	}

	if req.GasPrice != "" {
		gasPrice, err := parseHexUint64(req.GasPrice)
		if err != nil {
			return normalizedRequest{}, jsonrpcerr.InvalidParameter(0, "invalid gasPrice: "+err.Error())
		}
		out.GasPrice = gasPrice
	} else {
		fees, err := s.mirror.GetNetworkFees(ctx, rc)
		if err == nil && len(fees.Fees) > 0 {
			out.GasPrice = fees.Fees[0].Gas
		}
	}

	if out.From == "" && value != nil && !value.IsZero() {
		out.From = s.operatorEvm
	}

	return out, nil
}

type normalizedRequest struct {
	From     string
	To       string
	Data     string
	Gas      uint64
	GasPrice uint64
	Value    uint64
}

func parseHexUint256(raw string) (*uint256.Int, error) {
	if raw == "" {
		return nil, nil
	}
	trimmed := strings.TrimPrefix(raw, "0x")
	if trimmed == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromHex("0x" + trimmed)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseHexUint64(raw string) (uint64, error) {
	trimmed := strings.TrimPrefix(raw, "0x")
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseUint(trimmed, 16, 64)
}
