// Package relayctx carries the per-request RequestContext (spec.md §3)
// through the dispatcher, translation services and clients.
package relayctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

type key struct{}

// Context is the immutable per-request correlation record. It is created
// once at transport ingress and passed by value through every call.
type Context struct {
	RequestID string
	IP        string
	LogPrefix string
	StartedAt time.Time
}

// New allocates a fresh RequestContext for an inbound call. ip may be empty
// for internally-originated calls (e.g. the subscription poller).
func New(ip string) Context {
	id := randomID(8)
	return Context{
		RequestID: id,
		IP:        ip,
		LogPrefix: "[" + id + "]",
		StartedAt: time.Now(),
	}
}

func randomID(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// WithContext attaches rc to ctx for log correlation. It is never consulted
// for control flow — callers that need the RequestContext's fields take it
// as an explicit parameter.
func WithContext(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, key{}, rc)
}

// FromContext recovers a RequestContext previously attached with
// WithContext, for logging call sites that only have a context.Context in
// scope.
func FromContext(ctx context.Context) (Context, bool) {
	rc, ok := ctx.Value(key{}).(Context)
	return rc, ok
}

// IsContextType reports whether v's dynamic type is Context, used by the
// dispatcher's CacheKey generation to skip RequestContext arguments
// (spec.md §3 CacheKey invariant).
func IsContextType(v any) bool {
	_, ok := v.(Context)
	return ok
}
