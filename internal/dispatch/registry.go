package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/cache"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/jsonrpcerr"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ratelimit"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
)

// Handler is the function signature every registered RPC method satisfies.
// params is the request's positional argument list, already type-checked
// against the method's ParamSchema.
type Handler func(ctx context.Context, rc relayctx.Context, params []any) (any, error)

// ParamSpec describes one positional parameter.
type ParamSpec struct {
	Type     ParamType
	Required bool
}

// CachePolicy is a method's optional caching rule (spec.md §4.1).
type CachePolicy struct {
	TTL time.Duration
	// SkipWhenParamAtIndexMatches maps a positional index to a
	// pipe-separated list of values that, if matched, skip the cache for
	// that call. A missing positional argument at a declared index also
	// skips caching.
	SkipWhenParamAtIndexMatches map[int][]string
}

// Registration is how a service exposes a method to the dispatcher.
type Registration struct {
	Method    string // "namespace_method", e.g. "eth_getBalance"
	Handler   Handler
	Schema    []ParamSpec
	Mutating  bool // true rejects the call in read-only mode
	RateLimit *RateLimitPolicy
	Cache     *CachePolicy
}

// RateLimitPolicy is a method's per-call limit (spec.md §4.1).
type RateLimitPolicy struct {
	Limit  int64
	Window time.Duration
}

type registeredMethod struct {
	Registration
}

// Dispatcher implements execute(method, params, context) (spec.md §4.1).
type Dispatcher struct {
	methods    map[string]*registeredMethod
	readOnly   bool
	rateLimit  ratelimit.Store
	cacheSvc   *cache.Service
}

// New builds an empty Dispatcher. readOnly rejects every method flagged
// Mutating with UNSUPPORTED_METHOD. rateLimit and cacheSvc may be nil, in
// which case their decorators are no-ops.
func New(readOnly bool, rateLimit ratelimit.Store, cacheSvc *cache.Service) *Dispatcher {
	return &Dispatcher{
		methods:   make(map[string]*registeredMethod),
		readOnly:  readOnly,
		rateLimit: rateLimit,
		cacheSvc:  cacheSvc,
	}
}

// Register adds reg to the dispatcher's handler map. Registering the same
// method name twice is a programmer error and panics, matching the
// construction-time "scan service implementations" model of spec.md §4.1 —
// there is no runtime re-registration.
func (d *Dispatcher) Register(reg Registration) {
	if _, exists := d.methods[reg.Method]; exists {
		panic("dispatch: method already registered: " + reg.Method)
	}
	d.methods[reg.Method] = &registeredMethod{Registration: reg}
}

// Execute validates params against the method's schema, applies read-only,
// rate-limit and cache decorators, and invokes the handler (spec.md §4.1).
func (d *Dispatcher) Execute(ctx context.Context, method string, params []any, rc relayctx.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("RPC handler panicked", "requestId", rc.RequestID, "method", method, "panic", r)
			result, err = nil, jsonrpcerr.InternalError(fmt.Sprint(r))
		}
	}()

	rm, ok := d.methods[method]
	if !ok {
		return nil, jsonrpcerr.MethodNotFound(method)
	}

	if rm.Mutating && d.readOnly {
		return nil, jsonrpcerr.UnsupportedMethod(method)
	}

	if err := validate(rm.Schema, params); err != nil {
		return nil, err
	}

	if d.rateLimit != nil && rm.RateLimit != nil {
		key := ratelimit.Key(rc.IP, method)
		exceeded, err := d.rateLimit.IncrementAndCheck(ctx, key, rm.RateLimit.Limit, rm.RateLimit.Window)
		if err != nil {
			return nil, err
		}
		if exceeded {
			return nil, jsonrpcerr.IPRateLimitExceeded(method)
		}
	}

	if d.cacheSvc != nil && rm.Cache != nil && !skipCache(rm.Cache, params) {
		key := cache.Key(method, params)
		var cached any
		hit, err := d.cacheSvc.Get(ctx, key, &cached)
		if err != nil {
			return nil, err
		}
		if hit {
			return cached, nil
		}

		result, err := rm.Handler(ctx, rc, params)
		if err != nil {
			return nil, err
		}
		if err := d.cacheSvc.Set(ctx, key, result, rm.Cache.TTL); err != nil {
			return nil, err
		}
		return result, nil
	}

	return rm.Handler(ctx, rc, params)
}

// validate checks params against schema: missing required positional
// arguments, type mismatches, and compound-type variants (spec.md §4.1).
func validate(schema []ParamSpec, params []any) error {
	for i, spec := range schema {
		if i >= len(params) {
			if spec.Required {
				return jsonrpcerr.MissingRequiredParameter(i)
			}
			continue
		}
		raw := decode(params[i])
		if raw == nil && !spec.Required {
			continue
		}
		if !checkAny(spec.Type, raw) {
			return jsonrpcerr.InvalidParameter(i, "expected "+string(spec.Type))
		}
	}
	return nil
}

// skipCache implements the positional skip-rule from spec.md §4.1: a
// missing argument at a declared index skips caching (so optional
// "latest" defaults do not poison the cache), as does a present argument
// matching one of the pipe-separated skip values.
func skipCache(policy *CachePolicy, params []any) bool {
	for idx, values := range policy.SkipWhenParamAtIndexMatches {
		if idx >= len(params) {
			return true
		}
		s, ok := decode(params[idx]).(string)
		if !ok {
			continue
		}
		for _, v := range values {
			for _, alt := range strings.Split(v, "|") {
				if s == alt {
					return true
				}
			}
		}
	}
	return false
}
