package planning

import (
	"fmt"
	"math"
	"time"
)

// ExpectedValueAt interpolates the Expected target line at date.
// The series must be sorted by date ascending. A nil result means the
// expected value is undefined there: the date falls outside the series
// bounds (no extrapolation, ever) or an exponential segment has a
// non-positive left endpoint. A date matching a stored point returns
// that point's value under every method.
func ExpectedValueAt(series []SeriesPoint, date time.Time, method string) (*float64, error) {
	switch method {
	case "", InterpolationLinear, InterpolationStep, InterpolationExponential:
	default:
		return nil, fmt.Errorf("unknown interpolation method %q", method)
	}
	if len(series) == 0 {
		return nil, nil
	}

	for _, p := range series {
		if sameDay(p.Date, date) {
			v := p.Value
			return &v, nil
		}
	}

	if date.Before(series[0].Date) || date.After(series[len(series)-1].Date) {
		return nil, nil
	}

	// Locate the bracketing interval [i, i+1).
	i := 0
	for i < len(series)-1 && !series[i+1].Date.After(date) {
		i++
	}
	if i >= len(series)-1 {
		return nil, nil
	}
	left, right := series[i], series[i+1]

	switch method {
	case InterpolationStep:
		v := left.Value
		return &v, nil
	case InterpolationExponential:
		if left.Value <= 0 || right.Value <= 0 {
			return nil, nil
		}
		frac := dateFraction(left.Date, right.Date, date)
		v := left.Value * math.Pow(right.Value/left.Value, frac)
		return &v, nil
	default:
		frac := dateFraction(left.Date, right.Date, date)
		v := left.Value + (right.Value-left.Value)*frac
		return &v, nil
	}
}

const (
	InterpolationLinear      = "linear"
	InterpolationStep        = "step"
	InterpolationExponential = "exponential"
)

func dateFraction(start, end, at time.Time) float64 {
	span := end.Sub(start)
	if span <= 0 {
		return 0
	}
	return float64(at.Sub(start)) / float64(span)
}
