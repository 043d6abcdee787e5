// Package hbarlimit implements the HBAR spending limiter (spec.md §4.4):
// per-identity SpendingPlans with time-windowed budgets, enforced
// pre-emptively using estimated fees and corrected post-hoc from receipts.
package hbarlimit

import "time"

// SubscriberType classifies the budget tier a caller is assigned to.
type SubscriberType string

const (
	Basic      SubscriberType = "basic"
	Extended   SubscriberType = "extended"
	Privileged SubscriberType = "privileged"
	Operator   SubscriberType = "operator"
)

// Plan is the SpendingPlan entity from spec.md §3.
type Plan struct {
	PlanID         string
	SubscriberType SubscriberType
	LimitTinybars  int64
	Window         time.Duration
	SpentTinybars  int64
	WindowStart    time.Time
}

// rollWindow advances the plan's window and resets SpentTinybars when the
// window has elapsed, lazily on access (spec.md §4.4 "Window semantics").
func (p *Plan) rollWindow(now time.Time) {
	if now.Sub(p.WindowStart) >= p.Window {
		p.SpentTinybars = 0
		p.WindowStart = now
	}
}

// remaining reports the tinybars still available in the current window,
// after rolling it forward if needed.
func (p *Plan) remaining(now time.Time) int64 {
	p.rollWindow(now)
	r := p.LimitTinybars - p.SpentTinybars
	if r < 0 {
		return 0
	}
	return r
}
