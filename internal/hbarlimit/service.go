package hbarlimit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/sharedstore"
)

const planKeyPrefix = "hbarplan:"

// Resolver maps a caller identity (EVM address and/or IP) to the plan that
// governs it. A production resolver consults a subscription registry; for
// the relay's purposes this is injected so the Service itself stays
// storage-agnostic.
type Resolver func(callerAddress, ip string) *Plan

// Service is the HBAR limit service (spec.md §4.4).
type Service struct {
	mu       sync.Mutex
	resolve  Resolver
	plans    map[string]*Plan
	shared   sharedstore.Store // nil disables cross-replica persistence
	now      func() time.Time
}

// New builds a Service. shared may be nil, matching the rate-limit store's
// "identical replication semantics" note in spec.md §4.4.
func New(resolve Resolver, shared sharedstore.Store) *Service {
	return &Service{
		resolve: resolve,
		plans:   make(map[string]*Plan),
		shared:  shared,
		now:     time.Now,
	}
}

// ShouldLimit implements spec.md §4.4's should_limit: when estimatedFee is
// non-nil, the check is pre-emptive and refuses the call when
// spent+estimated > limit. txConstructor and callerName are accepted for
// parity with the source's signature (metrics/labeling) but do not affect
// the decision.
func (s *Service) ShouldLimit(ctx context.Context, mode, callerName string, txConstructor string, callerAddress string, rc relayctx.Context, estimatedFee *int64) (bool, error) {
	plan, err := s.loadPlan(ctx, callerAddress, rc.IP)
	if err != nil {
		return false, err
	}
	if plan == nil {
		// No plan resolved for this identity: spec.md does not define a
		// default budget, so an unplanned caller is never limited here —
		// the dispatcher's rate-limit decorator is the first line of
		// defense for unauthenticated callers.
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	remaining := plan.remaining(now)
	if estimatedFee != nil {
		return remaining < *estimatedFee, nil
	}
	return remaining <= 0, nil
}

// AddExpense implements spec.md §4.4's add_expense: post-hoc accounting
// after a transaction receipt is available.
func (s *Service) AddExpense(ctx context.Context, costTinybars int64, callerAddress string, rc relayctx.Context) error {
	plan, err := s.loadPlan(ctx, callerAddress, rc.IP)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	s.mu.Lock()
	plan.rollWindow(s.now())
	plan.SpentTinybars += costTinybars
	s.mu.Unlock()

	return s.persist(ctx, plan)
}

func (s *Service) loadPlan(ctx context.Context, callerAddress, ip string) (*Plan, error) {
	plan := s.resolve(callerAddress, ip)
	if plan == nil {
		return nil, nil
	}

	s.mu.Lock()
	cached, ok := s.plans[plan.PlanID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	if s.shared != nil {
		raw, found, err := s.shared.Get(ctx, planKeyPrefix+plan.PlanID)
		if err != nil {
			return nil, err
		}
		if found {
			var persisted Plan
			if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
				return nil, err
			}
			plan = &persisted
		}
	}

	s.mu.Lock()
	s.plans[plan.PlanID] = plan
	s.mu.Unlock()
	return plan, nil
}

func (s *Service) persist(ctx context.Context, plan *Plan) error {
	s.mu.Lock()
	s.plans[plan.PlanID] = plan
	s.mu.Unlock()

	if s.shared == nil {
		return nil
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return s.shared.Set(ctx, planKeyPrefix+plan.PlanID, string(raw), plan.Window)
}
