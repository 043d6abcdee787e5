package sdkclient

import "github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"

// ClientError re-exports the typed upstream error (spec.md §7 names it
// SDKClientError).
type ClientError = jsonrpcerr.SDKClientError

// NewSDKClientError re-exports the constructor alongside the type alias.
func NewSDKClientError(status string, underlying error) *ClientError {
	return jsonrpcerr.NewSDKClientError(status, underlying)
}
