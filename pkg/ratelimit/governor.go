// Package ratelimit implements RateGovernor: a credit-reservation rate
// limiter that holds back a 600-point floor until five minutes before each
// hourly reset; in those last five minutes the floor is released (spec.md
// §4.4).
package ratelimit

// reservePoints is the floor ShouldProceed keeps in reserve until
// reserveWindowSeconds before reset_at; it no longer applies after that.
const reservePoints = 600

// reserveWindowSeconds is how long before reset_at the reserve floor stops
// applying.
const reserveWindowSeconds = 5 * 60

// reconcileMarginSeconds is added to reset_in_seconds on every Reconcile
// call to tolerate clock skew between this process and the LogService.
const reconcileMarginSeconds = 60

// Decision is ShouldProceed's verdict.
type Decision int

// Decisions.
const (
	Go Decision = iota
	Wait
)

// Governor tracks the LogService credit budget for one hourly window.
type Governor struct {
	pointsUsed  int
	pointsLimit int
	resetAt     int64 // wall-clock seconds
}

// New returns a Governor with no budget probed yet.
func New() *Governor {
	return &Governor{}
}

// ShouldProceed reports whether the next query may proceed given now
// (wall-clock seconds), per spec.md §4.4.
func (g *Governor) ShouldProceed(now int64) Decision {
	if g.pointsLimit == 0 {
		return Go // optimistic first call, nothing probed yet
	}
	pointsLeft := g.pointsLimit - g.pointsUsed
	reserveDeadline := g.resetAt - reserveWindowSeconds
	if pointsLeft < reservePoints && now < reserveDeadline {
		return Wait
	}
	return Go
}

// Reconcile absorbs a fresh QueryRateLimit observation. Called at most every
// 15 seconds by the Scheduler, and unconditionally before a confirmed
// rate-limit error.
func (g *Governor) Reconcile(limit, used int, resetInSeconds int64, now int64) {
	g.pointsLimit = limit
	g.pointsUsed = used
	g.resetAt = now + resetInSeconds + reconcileMarginSeconds
}

// PointsLeft reports the governor's current estimate of remaining credits,
// for status reporting (ViewBridge reservation text, spec.md §6).
func (g *Governor) PointsLeft() int {
	return g.pointsLimit - g.pointsUsed
}

// Limit reports the last-reconciled hourly point budget, for status
// reporting (spec.md §6's "Updated ... points used" line).
func (g *Governor) Limit() int {
	return g.pointsLimit
}

// Used reports the last-reconciled points spent this hour, for status
// reporting (spec.md §6's "Updated ... points used" line).
func (g *Governor) Used() int {
	return g.pointsUsed
}

// ResetAt reports the wall-clock second at which the current hourly window
// resets, for status reporting (spec.md §6's "Reset at {HH:MM}" lines).
func (g *Governor) ResetAt() int64 {
	return g.resetAt
}

// ReserveDeadline reports the wall-clock second at which the reserve floor
// stops applying (resetAt minus reserveWindowSeconds), for status reporting
// (spec.md §6's "Reserving ... until {HH:MM}" line).
func (g *Governor) ReserveDeadline() int64 {
	return g.resetAt - reserveWindowSeconds
}

// Exhausted reports whether the last-reconciled budget has no points left,
// distinguishing a confirmed hard rate-limit from the interactive reserve
// floor ShouldProceed enforces ahead of time.
func (g *Governor) Exhausted() bool {
	return g.pointsLimit > 0 && g.pointsUsed >= g.pointsLimit
}
