package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldProceedOptimisticBeforeFirstReconcile(t *testing.T) {
	g := New()
	assert.Equal(t, Go, g.ShouldProceed(1000))
}

// TestShouldProceedReserve is spec.md §8 scenario S3.
func TestShouldProceedReserve(t *testing.T) {
	g := New()
	const resetAt = int64(1_000_000)
	// Reconcile sets resetAt = now + resetInSeconds + margin; reconcile at
	// now=0 with resetInSeconds chosen so the resulting resetAt is exactly
	// the scenario's literal value.
	g.Reconcile(18000, 17500, resetAt-reconcileMarginSeconds, 0)

	assert.Equal(t, Wait, g.ShouldProceed(resetAt-10*60))
	assert.Equal(t, Go, g.ShouldProceed(resetAt-4*60))
}

func TestShouldProceedGoWhenAboveFloor(t *testing.T) {
	g := New()
	g.Reconcile(18000, 1000, 3600-reconcileMarginSeconds, 0)
	assert.Equal(t, Go, g.ShouldProceed(0))
}

func TestReconcileAppliesClockSkewMargin(t *testing.T) {
	g := New()
	g.Reconcile(18000, 0, 100, 0)
	assert.Equal(t, int64(160), g.resetAt)
}

func TestPointsLeft(t *testing.T) {
	g := New()
	g.Reconcile(18000, 17500, 3600, 0)
	assert.Equal(t, 500, g.PointsLeft())
}
