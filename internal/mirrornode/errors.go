package mirrornode

import "github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"

// ClientError is a re-export of the typed upstream error so callers of this
// package only need to import mirrornode (spec.md §7 names it
// MirrorNodeClientError).
type ClientError = jsonrpcerr.MirrorNodeClientError
