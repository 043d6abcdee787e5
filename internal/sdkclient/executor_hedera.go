package sdkclient

import (
	"context"
	"fmt"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// hederaExecutor adapts the real consensus-node SDK client to the Executor
// interface the rest of this package depends on.
type hederaExecutor struct {
	client     *hedera.Client
	operatorID hedera.AccountID
	operatorPK *hedera.PublicKey
}

// NewHederaExecutor builds an Executor around an already-configured
// hedera.Client (network selection, operator credentials). Construction of
// the underlying hedera.Client is a startup-time concern left to cmd/relay.
func NewHederaExecutor(client *hedera.Client, operatorID hedera.AccountID, operatorPK *hedera.PublicKey) Executor {
	return &hederaExecutor{client: client, operatorID: operatorID, operatorPK: operatorPK}
}

func (h *hederaExecutor) SetMaxExecutionTime(d time.Duration) {
	h.client.SetMaxExecutionTime(d)
}

func (h *hederaExecutor) OperatorPublicKey() ([]byte, bool) {
	if h.operatorPK == nil {
		return nil, false
	}
	return h.operatorPK.BytesDer(), true
}

func (h *hederaExecutor) OperatorAccountID() string {
	return h.operatorID.String()
}

func (h *hederaExecutor) CreateFile(ctx context.Context, contents []byte) (string, error) {
	tx := hedera.NewFileCreateTransaction().
		SetContents(contents).
		SetTransactionID(hedera.TransactionIDGenerate(h.operatorID))
	if h.operatorPK != nil {
		tx = tx.SetKeys(*h.operatorPK)
	}

	resp, err := tx.Execute(h.client)
	if err != nil {
		return "", classify(err)
	}
	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return "", classify(err)
	}
	if receipt.FileID == nil {
		return "", fmt.Errorf("file create receipt missing file id")
	}
	return receipt.FileID.String(), nil
}

func (h *hederaExecutor) AppendFile(ctx context.Context, fileID string, contents []byte, chunkSize, maxChunks int) error {
	if len(contents) == 0 {
		return nil
	}
	id, err := hedera.FileIDFromString(fileID)
	if err != nil {
		return err
	}

	requiredChunks := (len(contents) + chunkSize - 1) / chunkSize
	if requiredChunks > maxChunks {
		return &ErrTransactionOversize{Chunks: requiredChunks, MaxChunks: maxChunks}
	}

	tx := hedera.NewFileAppendTransaction().
		SetFileID(id).
		SetContents(contents).
		SetChunkSize(chunkSize).
		SetMaxChunks(uint64(maxChunks))

	// executeAll: every chunk is submitted in sequence (spec.md §4.5 step 3d).
	responses, err := tx.ExecuteAll(h.client)
	if err != nil {
		return classify(err)
	}
	for _, resp := range responses {
		if _, err := resp.GetReceipt(h.client); err != nil {
			return classify(err)
		}
	}
	return nil
}

func (h *hederaExecutor) FileSize(ctx context.Context, fileID string) (uint64, error) {
	id, err := hedera.FileIDFromString(fileID)
	if err != nil {
		return 0, err
	}
	info, err := hedera.NewFileInfoQuery().SetFileID(id).Execute(h.client)
	if err != nil {
		return 0, classify(err)
	}
	return uint64(info.Size), nil
}

func (h *hederaExecutor) DeleteFile(ctx context.Context, fileID string) error {
	id, err := hedera.FileIDFromString(fileID)
	if err != nil {
		return err
	}
	tx := hedera.NewFileDeleteTransaction().SetFileID(id)
	resp, err := tx.Execute(h.client)
	if err != nil {
		return classify(err)
	}
	_, err = resp.GetReceipt(h.client)
	return classify(err)
}

func (h *hederaExecutor) SubmitEthereumTransaction(ctx context.Context, ethereumData []byte, callDataFileID string, maxFeeTinybars int64, maxGasAllowanceHbar float64) (TransactionResult, error) {
	tx := hedera.NewEthereumTransaction().
		SetEthereumData(ethereumData).
		SetMaxTransactionFee(hedera.HbarFromTinybar(maxFeeTinybars)).
		SetMaxGasAllowanceHbar(hedera.NewHbar(maxGasAllowanceHbar))

	if callDataFileID != "" {
		id, err := hedera.FileIDFromString(callDataFileID)
		if err != nil {
			return TransactionResult{}, err
		}
		tx = tx.SetCallDataFileID(id)
	}

	resp, err := tx.Execute(h.client)
	if err != nil {
		return TransactionResult{}, classify(err)
	}

	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return TransactionResult{}, classify(err)
	}

	record, err := resp.GetRecord(h.client)
	var cost int64
	if err == nil {
		cost = record.TransactionFee.AsTinybar()
	}

	return TransactionResult{
		TransactionID: resp.TransactionID.String(),
		Status:        receipt.Status.String(),
		CostTinybars:  cost,
	}, nil
}

// classify maps a raw SDK error into the typed SDKClientError taxonomy
// (spec.md §4.5 step 5, §7). WRONG_NONCE is propagated unchanged by
// callers inspecting ClientError.Status == "WRONG_NONCE"; everything else
// is distinguished by the error's type: an error whose Timeout() reports
// true is a timeout, and any error that is neither a pre-check nor a
// receipt status is treated as a dropped connection.
func classify(err error) error {
	if err == nil {
		return nil
	}
	status := extractStatus(err)
	ce := NewSDKClientError(status, err)
	switch {
	case status == "WRONG_NONCE":
		// propagated unchanged; higher layer retries or surfaces.
	case isTimeout(err):
		ce.TimeoutExceeded = true
	case isConnectionDrop(err):
		ce.ConnectionDropped = true
	}
	return ce
}

func extractStatus(err error) string {
	if pe, ok := err.(hedera.ErrHederaPreCheckStatus); ok {
		return pe.Status.String()
	}
	if re, ok := err.(hedera.ErrHederaReceiptStatus); ok {
		return re.Status.String()
	}
	return ""
}

func isTimeout(err error) bool {
	t, ok := err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// isConnectionDrop reports whether the gRPC call returned without a
// response at all, as opposed to a typed pre-check/receipt status
// (spec.md §4.5 step 5, "connection-drop with no response").
func isConnectionDrop(err error) bool {
	_, isPreCheck := err.(hedera.ErrHederaPreCheckStatus)
	_, isReceipt := err.(hedera.ErrHederaReceiptStatus)
	return !isPreCheck && !isReceipt
}
