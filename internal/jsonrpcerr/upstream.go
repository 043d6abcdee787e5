package jsonrpcerr

import "fmt"

// MirrorNodeClientError wraps a non-2xx Mirror Node REST response so callers
// can branch on its classification (spec.md §4.8, §7) with errors.As.
type MirrorNodeClientError struct {
	StatusCode int
	Body       string
	MirrorCode string // e.g. "CONTRACT_REVERTED", "INVALID_TRANSACTION"
}

func (e *MirrorNodeClientError) Error() string {
	return fmt.Sprintf("mirror node client error: status=%d code=%s", e.StatusCode, e.MirrorCode)
}

// IsRateLimit reports whether the Mirror Node responded 429.
func (e *MirrorNodeClientError) IsRateLimit() bool { return e.StatusCode == 429 }

// IsNotSupported reports whether the Mirror Node responded 501.
func (e *MirrorNodeClientError) IsNotSupported() bool { return e.StatusCode == 501 }

// IsNotFound reports whether the Mirror Node responded 404.
func (e *MirrorNodeClientError) IsNotFound() bool { return e.StatusCode == 404 }

// IsContractRevert reports a 400 CONTRACT_REVERTED response.
func (e *MirrorNodeClientError) IsContractRevert() bool {
	return e.StatusCode == 400 && e.MirrorCode == "CONTRACT_REVERTED"
}

// IsInvalidTransaction reports a 400 response simulating a non-existent
// `to` address (spec.md §4.8 step 8).
func (e *MirrorNodeClientError) IsInvalidTransaction() bool {
	return e.StatusCode == 400 && (e.MirrorCode == "INVALID_TRANSACTION" || e.MirrorCode == "FAIL_INVALID")
}

// SDKClientError wraps a consensus-node SDK failure (spec.md §4.5 step 5).
type SDKClientError struct {
	Status              string
	GrpcTimeout         bool
	ConnectionDropped   bool
	TimeoutExceeded     bool
	underlying          error
}

func NewSDKClientError(status string, underlying error) *SDKClientError {
	return &SDKClientError{Status: status, underlying: underlying}
}

func (e *SDKClientError) Error() string {
	return fmt.Sprintf("sdk client error: status=%s: %v", e.Status, e.underlying)
}

func (e *SDKClientError) Unwrap() error { return e.underlying }

func (e *SDKClientError) IsGrpcTimeout() bool       { return e.GrpcTimeout }
func (e *SDKClientError) IsConnectionDropped() bool { return e.ConnectionDropped }
func (e *SDKClientError) IsTimeoutExceeded() bool   { return e.TimeoutExceeded }

// IsWrongNonce reports the typed WRONG_NONCE status (spec.md §4.5 step 5,
// propagated unchanged for the caller to retry or surface).
func (e *SDKClientError) IsWrongNonce() bool { return e.Status == "WRONG_NONCE" }
