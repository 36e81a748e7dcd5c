package jobs

import "time"

// Decode progress is capped below 1.0: only the pipeline's final
// transition declares completion, since output still has to be written
// after the last segment is decoded.
const decodeProgressCap = 0.99

// Guards the ETA division right after start, when progress is ~0.
const progressEpsilon = 1e-3

// Estimator converts "decoded up to T seconds" callbacks into a
// fractional progress and an ETA. It keeps no state; every call is a pure
// function of its inputs.
type Estimator struct {
	// FallbackHorizon and FallbackCap drive the time-based heuristic used
	// when the input duration is unknown: progress ramps linearly over the
	// horizon and never exceeds the cap. No ETA is reported on that path.
	FallbackHorizon time.Duration
	FallbackCap     float64
}

// NewEstimator returns an estimator with the default fallback heuristic
// (60s horizon, 0.9 cap).
func NewEstimator() Estimator {
	return Estimator{
		FallbackHorizon: 60 * time.Second,
		FallbackCap:     0.9,
	}
}

// Estimate is one progress sample.
type Estimate struct {
	Progress   float64
	ETASeconds float64
	HasETA     bool
}

// Estimate derives progress and ETA from decoded audio time, the total
// input duration (when known) and wall-clock time since the job started.
// ETA is a linear-rate extrapolation recomputed from scratch on every
// call; there is no smoothing.
func (e Estimator) Estimate(decodedSec, totalSec float64, elapsed time.Duration) Estimate {
	if totalSec <= 0 {
		progress := elapsed.Seconds() / e.FallbackHorizon.Seconds()
		if progress > e.FallbackCap {
			progress = e.FallbackCap
		}
		return Estimate{Progress: progress}
	}

	progress := decodedSec / totalSec
	if progress > decodeProgressCap {
		progress = decodeProgressCap
	}
	denom := progress
	if denom < progressEpsilon {
		denom = progressEpsilon
	}
	eta := (elapsed.Seconds() / denom) * (1.0 - progress)
	return Estimate{Progress: progress, ETASeconds: eta, HasETA: true}
}
