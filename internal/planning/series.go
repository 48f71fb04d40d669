// Package planning holds the pure calculation core of the measure
// planning engine: expected-value interpolation, variance arithmetic,
// replan triggering and series adjustment, and impact banding. Nothing
// here touches storage or carries state.
package planning

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SeriesPoint is one dated value of a target or actual line.
type SeriesPoint struct {
	ID    uuid.UUID `json:"id,omitempty"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// SortSeries orders points by date ascending, in place.
func SortSeries(points []SeriesPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}

// WellFormed reports whether the series has strictly increasing dates
// and finite values. Custom replacement series must pass this before
// being accepted.
func WellFormed(points []SeriesPoint) bool {
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return false
		}
		if i > 0 && !points[i-1].Date.Before(p.Date) {
			return false
		}
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
