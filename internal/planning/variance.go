package planning

import "math"

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Variance is the direction-agnostic comparison of an actual reading
// against the expected value at the same date. Pct is nil when the
// expected value is nil or zero; callers must treat that as
// insufficient data, never as zero variance.
type Variance struct {
	Actual   float64  `json:"actual"`
	Expected *float64 `json:"expected"`
	Diff     *float64 `json:"diff"`
	Pct      *float64 `json:"pct"`
}

// ComputeVariance computes actual minus expected. Direction plays no
// part here; classification lives in Favorability.
func ComputeVariance(actual float64, expected *float64) Variance {
	v := Variance{Actual: actual, Expected: expected}
	if expected == nil {
		return v
	}
	diff := actual - *expected
	v.Diff = &diff
	if *expected == 0 {
		return v
	}
	pct := diff / *expected * 100
	v.Pct = &pct
	return v
}

// Favorability classifications derived from a variance and a measure
// direction. This is a thin presentation layer over the raw numbers.
const (
	FavorabilityUnknown     = "unknown"
	FavorabilityFavorable   = "favorable"
	FavorabilityUnfavorable = "unfavorable"
	FavorabilityOnTarget    = "on_target"
)

// Favorability classifies a variance for a measure direction: for an
// "up" measure a positive variance is favorable, for a "down" measure
// a negative one is.
func Favorability(v Variance, direction string) string {
	if v.Diff == nil {
		return FavorabilityUnknown
	}
	d := *v.Diff
	switch {
	case d == 0:
		return FavorabilityOnTarget
	case direction == DirectionDown:
		if d < 0 {
			return FavorabilityFavorable
		}
		return FavorabilityUnfavorable
	default:
		if d > 0 {
			return FavorabilityFavorable
		}
		return FavorabilityUnfavorable
	}
}

// BreachesThreshold reports whether the percentage variance exceeds
// the threshold in magnitude. A nil percentage is insufficient data
// and never a breach.
func BreachesThreshold(variancePct *float64, thresholdPct float64) bool {
	if variancePct == nil {
		return false
	}
	return math.Abs(*variancePct) > thresholdPct
}

// ShouldSuggestReplan reports whether a replan should be flagged after
// the current reading: the threshold must have been breached for
// requiredCount consecutive recordings, the current one included.
// consecutiveMisses is the breach streak before the current reading.
func ShouldSuggestReplan(variancePct *float64, thresholdPct float64, consecutiveMisses, requiredCount int) bool {
	if !BreachesThreshold(variancePct, thresholdPct) {
		return false
	}
	if requiredCount < 1 {
		requiredCount = 1
	}
	return consecutiveMisses+1 >= requiredCount
}
