package planning

import (
	"fmt"
	"time"
)

const (
	ReplanMaintainFinalGoal = "maintain_final_goal"
	ReplanProportionalShift = "proportional_shift"
	ReplanCustom            = "custom"
)

// Anchor is the actual reading a replan pivots around. Target points
// dated before the anchor are immutable history and come back
// unchanged from every adjustment.
type Anchor struct {
	Date  time.Time
	Value float64
}

// MaintainFinalGoal recomputes the Expected series so the trajectory
// reconnects the anchor to the unchanged final target. Intermediate
// future points keep their dates; their values are re-interpolated
// (with the configured method) between the anchor and the final point.
func MaintainFinalGoal(series []SeriesPoint, anchor Anchor, method string) ([]SeriesPoint, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("empty target series")
	}
	final := series[len(series)-1]
	if !anchor.Date.Before(final.Date) {
		return nil, fmt.Errorf("anchor date must precede the final target date")
	}

	bridge := []SeriesPoint{
		{Date: anchor.Date, Value: anchor.Value},
		{Date: final.Date, Value: final.Value},
	}
	out := make([]SeriesPoint, 0, len(series)+1)
	anchored := false
	for _, p := range series {
		switch {
		case p.Date.Before(anchor.Date):
			out = append(out, p)
		case sameDay(p.Date, anchor.Date):
			// Existing point on the anchor date takes the actual value.
			out = append(out, SeriesPoint{ID: p.ID, Date: p.Date, Value: anchor.Value})
			anchored = true
		case sameDay(p.Date, final.Date):
			if !anchored {
				out = append(out, SeriesPoint{Date: anchor.Date, Value: anchor.Value})
				anchored = true
			}
			out = append(out, p)
		default:
			if !anchored {
				out = append(out, SeriesPoint{Date: anchor.Date, Value: anchor.Value})
				anchored = true
			}
			v, err := ExpectedValueAt(bridge, p.Date, method)
			if err != nil {
				return nil, err
			}
			if v == nil {
				// Point sits between anchor and final but the segment
				// is undefined for this method (non-positive values
				// under exponential). Fall back to linear so the
				// trajectory stays connected.
				v, _ = ExpectedValueAt(bridge, p.Date, InterpolationLinear)
			}
			if v == nil {
				out = append(out, p)
				continue
			}
			out = append(out, SeriesPoint{ID: p.ID, Date: p.Date, Value: *v})
		}
	}
	return out, nil
}

// ProportionalShift moves every Expected point dated at or after the
// anchor by the same absolute delta (latest actual minus latest
// expected at the anchor date).
func ProportionalShift(series []SeriesPoint, anchor Anchor, delta float64) ([]SeriesPoint, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("empty target series")
	}
	out := make([]SeriesPoint, 0, len(series))
	for _, p := range series {
		if p.Date.Before(anchor.Date) {
			out = append(out, p)
			continue
		}
		out = append(out, SeriesPoint{ID: p.ID, Date: p.Date, Value: p.Value + delta})
	}
	return out, nil
}

// ValidateCustomSeries checks a caller-supplied replacement series:
// dates strictly increasing, values finite, and no rewriting of
// history before the anchor.
func ValidateCustomSeries(points []SeriesPoint, anchor Anchor) error {
	if len(points) == 0 {
		return fmt.Errorf("replacement series is empty")
	}
	if !WellFormed(points) {
		return fmt.Errorf("replacement series must have strictly increasing dates and finite values")
	}
	if points[0].Date.Before(anchor.Date) {
		return fmt.Errorf("replacement series may not modify points before %s", anchor.Date.Format("2006-01-02"))
	}
	return nil
}
