// Package sdkclient wraps the consensus-node SDK (spec.md §4.5, §6
// "Consensus SDK (consumed)"). The SDK itself is treated as opaque —
// Executor is the narrow surface the relay actually needs
// (setMaxExecutionTime, execute, getReceipt, executeAll), concretely
// implemented against github.com/hashgraph/hedera-sdk-go/v2.
package sdkclient

import (
	"context"
	"time"
)

// TransactionResult is what a signed-transaction submission yields once a
// receipt has been obtained.
type TransactionResult struct {
	TransactionID string
	Status        string
	CostTinybars  int64
}

// Executor is the opaque consensus-node SDK surface (spec.md §6).
// Implementations: hederaExecutor (production, see executor_hedera.go) and
// test fakes implementing the same interface.
type Executor interface {
	// SetMaxExecutionTime bounds every subsequent call's SDK-level
	// timeout (spec.md §5, CONSENSUS_MAX_EXECUTION_TIME).
	SetMaxExecutionTime(d time.Duration)

	// CreateFile creates an HFS file with the given initial contents,
	// keyed with the operator's public key when present (spec.md §4.5
	// step 3c).
	CreateFile(ctx context.Context, contents []byte) (fileID string, err error)

	// AppendFile appends the remaining contents to fileID, chunked at
	// chunkSize with at most maxChunks chunks, executed in sequence
	// (spec.md §4.5 step 3d). Exceeding maxChunks surfaces
	// jsonrpcerr-compatible TRANSACTION_OVERSIZE via ErrTransactionOversize.
	AppendFile(ctx context.Context, fileID string, contents []byte, chunkSize, maxChunks int) error

	// FileSize issues a FileInfoQuery and returns the file's current size
	// (spec.md §4.5 step 3e).
	FileSize(ctx context.Context, fileID string) (uint64, error)

	// DeleteFile best-effort reclaims an HFS file (spec.md §4.5 "Cleanup").
	DeleteFile(ctx context.Context, fileID string) error

	// SubmitEthereumTransaction executes the re-encoded Ethereum
	// transaction (spec.md §4.5 step 4-5).
	SubmitEthereumTransaction(ctx context.Context, ethereumData []byte, callDataFileID string, maxFeeTinybars int64, maxGasAllowanceHbar float64) (TransactionResult, error)

	// OperatorPublicKey returns the operator's DER-encoded public key
	// bytes, if the executor has one configured.
	OperatorPublicKey() ([]byte, bool)

	// OperatorAccountID returns the configured operator account, e.g. "0.0.1001".
	OperatorAccountID() string
}

// ErrTransactionOversize is returned by AppendFile when the call data
// requires more chunks than maxChunks permits (spec.md §4.5 step 3d).
type ErrTransactionOversize struct {
	Chunks, MaxChunks int
}

func (e *ErrTransactionOversize) Error() string {
	return "TRANSACTION_OVERSIZE: call data requires more chunks than allowed"
}

// Client is the process-wide SDK client singleton (spec.md §5).
type Client struct {
	exec   Executor
	sink   EventSink
	logger eventLogger
}

type eventLogger interface {
	Debug(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
}

// New builds a Client around exec, publishing cost-accounting events to sink.
func New(exec Executor, sink EventSink, logger eventLogger) *Client {
	return &Client{exec: exec, sink: sink, logger: logger}
}
