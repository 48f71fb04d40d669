package planning

import (
	"testing"
	"time"
)

func TestExpectedValueAtExactDateAllMethods(t *testing.T) {
	series := []SeriesPoint{
		{Date: mustDay("2025-01-01"), Value: 100},
		{Date: mustDay("2025-02-01"), Value: 200},
		{Date: mustDay("2025-03-31"), Value: 400},
	}
	for _, method := range []string{InterpolationLinear, InterpolationStep, InterpolationExponential} {
		for _, p := range series {
			got, err := ExpectedValueAt(series, p.Date, method)
			if err != nil {
				t.Fatalf("%s at %s: %v", method, p.Date, err)
			}
			if got == nil || *got != p.Value {
				t.Fatalf("%s at %s: got %v, want %v", method, p.Date, got, p.Value)
			}
		}
	}
}

func TestExpectedValueAtNeverExtrapolates(t *testing.T) {
	series := []SeriesPoint{
		{Date: mustDay("2025-01-01"), Value: 100},
		{Date: mustDay("2025-03-31"), Value: 400},
	}
	cases := []struct {
		name string
		at   string
	}{
		{name: "before_first", at: "2024-12-31"},
		{name: "after_last", at: "2025-04-01"},
		{name: "far_before", at: "2020-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, method := range []string{InterpolationLinear, InterpolationStep, InterpolationExponential} {
				got, err := ExpectedValueAt(series, mustDay(tc.at), method)
				if err != nil {
					t.Fatalf("%s: %v", method, err)
				}
				if got != nil {
					t.Fatalf("%s at %s: got %v, want nil", method, tc.at, *got)
				}
			}
		})
	}
}

func TestExpectedValueAtLinear(t *testing.T) {
	// 90-day span, 45 days in: 100 + 300*(45/90) = 250.
	series := []SeriesPoint{
		{Date: mustDay("2025-01-01"), Value: 100},
		{Date: mustDay("2025-04-01"), Value: 400},
	}
	got, err := ExpectedValueAt(series, mustDay("2025-02-15"), InterpolationLinear)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != 250 {
		t.Fatalf("got %v, want 250", got)
	}

	// Monotonic between increasing endpoints.
	prev := 100.0
	for d := mustDay("2025-01-02"); d.Before(mustDay("2025-04-01")); d = d.AddDate(0, 0, 7) {
		v, err := ExpectedValueAt(series, d, InterpolationLinear)
		if err != nil {
			t.Fatal(err)
		}
		if v == nil || *v < prev {
			t.Fatalf("not monotonic at %s: %v < %v", d, v, prev)
		}
		prev = *v
	}
}

func TestExpectedValueAtStep(t *testing.T) {
	series := []SeriesPoint{
		{Date: mustDay("2025-01-01"), Value: 100},
		{Date: mustDay("2025-02-01"), Value: 200},
		{Date: mustDay("2025-03-01"), Value: 300},
	}
	got, err := ExpectedValueAt(series, mustDay("2025-02-20"), InterpolationStep)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != 200 {
		t.Fatalf("step should hold the last target at or before the date, got %v", got)
	}
}

func TestExpectedValueAtExponential(t *testing.T) {
	// 100 -> 400 over the span; at the midpoint the geometric path
	// passes through 200.
	series := []SeriesPoint{
		{Date: mustDay("2025-01-01"), Value: 100},
		{Date: mustDay("2025-01-31"), Value: 400},
	}
	got, err := ExpectedValueAt(series, mustDay("2025-01-16"), InterpolationExponential)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("got nil")
	}
	if diff := *got - 200; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got %v, want 200", *got)
	}
}

func TestExpectedValueAtExponentialUndefinedOnNonPositive(t *testing.T) {
	series := []SeriesPoint{
		{Date: mustDay("2025-01-01"), Value: 0},
		{Date: mustDay("2025-01-31"), Value: 400},
	}
	got, err := ExpectedValueAt(series, mustDay("2025-01-16"), InterpolationExponential)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil for non-positive left endpoint", *got)
	}
}

func TestExpectedValueAtUnknownMethod(t *testing.T) {
	series := []SeriesPoint{{Date: mustDay("2025-01-01"), Value: 1}}
	if _, err := ExpectedValueAt(series, mustDay("2025-01-01"), "cubic"); err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func mustDay(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
