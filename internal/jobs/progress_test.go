package jobs

import (
	"math"
	"testing"
	"time"
)

// TestEstimateKnownDuration checks the linear-rate extrapolation.
func TestEstimateKnownDuration(t *testing.T) {
	e := NewEstimator()

	est := e.Estimate(50, 100, 10*time.Second)
	if est.Progress != 0.5 {
		t.Fatalf("progress = %v, want 0.5", est.Progress)
	}
	if !est.HasETA {
		t.Fatal("eta should be available with known duration")
	}
	if math.Abs(est.ETASeconds-10.0) > 1e-9 {
		t.Fatalf("eta = %v, want 10.0", est.ETASeconds)
	}
}

// TestEstimateCapsBelowOne verifies decode progress never reaches 1.0;
// only the pipeline's final transition declares completion.
func TestEstimateCapsBelowOne(t *testing.T) {
	e := NewEstimator()

	est := e.Estimate(99.9, 100, 30*time.Second)
	if est.Progress != 0.99 {
		t.Fatalf("progress = %v, want cap 0.99", est.Progress)
	}

	est = e.Estimate(150, 100, 30*time.Second)
	if est.Progress != 0.99 {
		t.Fatalf("progress past end = %v, want cap 0.99", est.Progress)
	}
}

// TestEstimateEpsilonGuard checks ETA does not blow up at the very start.
func TestEstimateEpsilonGuard(t *testing.T) {
	e := NewEstimator()

	est := e.Estimate(0, 100, time.Second)
	if est.Progress != 0 {
		t.Fatalf("progress = %v, want 0", est.Progress)
	}
	// elapsed/epsilon * (1-0) = 1/1e-3 = 1000
	if math.Abs(est.ETASeconds-1000.0) > 1e-6 {
		t.Fatalf("eta = %v, want 1000", est.ETASeconds)
	}
}

// TestEstimateUnknownDuration covers the time-based fallback heuristic.
func TestEstimateUnknownDuration(t *testing.T) {
	e := NewEstimator()

	est := e.Estimate(500, 0, 30*time.Second)
	if est.HasETA {
		t.Fatal("eta must be unavailable when duration is unknown")
	}
	if est.Progress != 0.5 {
		t.Fatalf("progress = %v, want elapsed/horizon = 0.5", est.Progress)
	}

	est = e.Estimate(500, 0, 10*time.Minute)
	if est.Progress != 0.9 {
		t.Fatalf("progress = %v, want fallback cap 0.9", est.Progress)
	}

	est = e.Estimate(500, -1, 30*time.Second)
	if est.HasETA {
		t.Fatal("negative duration must use the fallback path")
	}
}

// TestEstimateConfigurableFallback verifies the heuristic constants are
// injectable rather than hard-wired.
func TestEstimateConfigurableFallback(t *testing.T) {
	e := Estimator{FallbackHorizon: 10 * time.Second, FallbackCap: 0.5}

	est := e.Estimate(0, 0, 5*time.Second)
	if est.Progress != 0.5 {
		t.Fatalf("progress = %v, want 0.5 with 10s horizon", est.Progress)
	}
	est = e.Estimate(0, 0, time.Minute)
	if est.Progress != 0.5 {
		t.Fatalf("progress = %v, want custom cap 0.5", est.Progress)
	}
}
