package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/apperr"
	"github.com/stridehq/stride-backend/internal/types"
)

func TestGetPlanViewUnknownLink(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.plan.GetPlanView(context.Background(), uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestGetPlanViewNoData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link, err := env.links.CreateLink(ctx, uuid.New(), CreateLinkInput{
		MeasureID: uuid.New(),
		PersonID:  uuid.New(),
		GoalID:    idp(),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	view, err := env.plan.GetPlanView(ctx, link.ID)
	if err != nil {
		t.Fatalf("plan view: %v", err)
	}
	if view.Summary.Status != StatusNoData {
		t.Fatalf("status: want no_data, got %q", view.Summary.Status)
	}
	if view.Summary.LatestActualValue != nil {
		t.Fatalf("no actuals recorded, got %v", view.Summary.LatestActualValue)
	}
}

func TestGetPlanViewStatuses(t *testing.T) {
	tests := []struct {
		name       string
		actual     float64
		wantStatus string
	}{
		// Expected at Feb 15 is 250 and the threshold is 10%.
		{"ahead of plan is on track", 300, StatusOnTrack},
		{"exactly on plan is on track", 250, StatusOnTrack},
		{"slightly behind is at risk", 240, StatusAtRisk},
		{"breach behind is off track", 200, StatusOffTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			link := seedLinkedPlan(t, env, fp(10))
			recordMeasured(t, env, link.ID, "2024-02-15", tt.actual)

			view, err := env.plan.GetPlanView(context.Background(), link.ID)
			if err != nil {
				t.Fatalf("plan view: %v", err)
			}
			if view.Summary.Status != tt.wantStatus {
				t.Fatalf("status: want %q, got %q", tt.wantStatus, view.Summary.Status)
			}
			if view.Summary.CurrentExpected == nil || *view.Summary.CurrentExpected != 250 {
				t.Fatalf("current expected: want 250, got %v", view.Summary.CurrentExpected)
			}
		})
	}
}

func TestGetPlanViewSplitsTargetLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)

	for _, subtype := range []string{types.SubtypeOptimal, types.SubtypeMinimal} {
		if _, err := env.points.CreateTarget(ctx, link.ID, CreateTargetInput{
			Subtype:       subtype,
			Value:         100,
			EffectiveDate: day(t, "2024-01-01"),
			RecordedBy:    uuid.New(),
		}); err != nil {
			t.Fatalf("seed %s target: %v", subtype, err)
		}
	}

	view, err := env.plan.GetPlanView(ctx, link.ID)
	if err != nil {
		t.Fatalf("plan view: %v", err)
	}
	if len(view.Expected) != 2 {
		t.Fatalf("expected line: want 2 points, got %d", len(view.Expected))
	}
	if len(view.Optimal) != 1 || len(view.Minimal) != 1 {
		t.Fatalf("optimal/minimal lines: got %d/%d", len(view.Optimal), len(view.Minimal))
	}
}

func TestGetPlanViewMeasuredBeatsEstimate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)

	if _, err := env.points.RecordActual(ctx, link.ID, RecordActualInput{
		Subtype:       types.SubtypeEstimate,
		Value:         200,
		EffectiveDate: day(t, "2024-02-15"),
		RecordedBy:    uuid.New(),
	}); err != nil {
		t.Fatalf("record estimate: %v", err)
	}
	recordMeasured(t, env, link.ID, "2024-02-15", 300)

	view, err := env.plan.GetPlanView(ctx, link.ID)
	if err != nil {
		t.Fatalf("plan view: %v", err)
	}
	if view.Summary.LatestActualValue == nil || *view.Summary.LatestActualValue != 300 {
		t.Fatalf("measured reading should win over the estimate, got %v", view.Summary.LatestActualValue)
	}
	// Both readings remain visible on the raw actual line.
	if len(view.Actuals) != 2 {
		t.Fatalf("raw actuals: want 2, got %d", len(view.Actuals))
	}
}
