package compliance

const (
	// confidenceCap keeps the model from claiming a perfect score.
	confidenceCap = 98

	partialThreshold = 40
	fullThreshold    = 85
)

// ApplyPolicy enforces the deterministic confidence-to-state thresholds:
// <40 forces Non-Compliant, 40-84 forces Partially Compliant, and >=85
// keeps a valid reported state or falls back to Fully Compliant.
// Confidence is clamped to [0, 98] regardless of input. The policy is
// authoritative over whatever state the model claimed.
func ApplyPolicy(state State, confidence int) (State, int) {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	switch {
	case confidence < partialThreshold:
		return NonCompliant, confidence
	case confidence < fullThreshold:
		return PartiallyCompliant, confidence
	case !state.Valid():
		return FullyCompliant, confidence
	}
	return state, confidence
}
