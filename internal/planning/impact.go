package planning

import "math"

const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
	ImpactNone   = "none"
)

// ImpactBands holds the configurable cutoffs for classifying the
// weighted variance score (weight x |variance pct|) of a link.
type ImpactBands struct {
	HighMin   float64 `yaml:"high_min"`
	MediumMin float64 `yaml:"medium_min"`
}

// DefaultImpactBands are used when no band config is supplied.
func DefaultImpactBands() ImpactBands {
	return ImpactBands{HighMin: 10, MediumMin: 3}
}

// Score computes weight x |variance pct|. A nil weight counts as full
// weight; a nil percentage yields a nil score (insufficient data).
func Score(weight *float64, variancePct *float64) *float64 {
	if variancePct == nil {
		return nil
	}
	w := 1.0
	if weight != nil {
		w = *weight
	}
	s := w * math.Abs(*variancePct)
	return &s
}

// Classify maps a weighted score into an impact level.
func (b ImpactBands) Classify(score *float64) string {
	if score == nil {
		return ImpactNone
	}
	switch {
	case *score >= b.HighMin:
		return ImpactHigh
	case *score >= b.MediumMin:
		return ImpactMedium
	default:
		return ImpactLow
	}
}
