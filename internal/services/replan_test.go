package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/apperr"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

// flagLink drives the seeded plan into the flagged state with two
// consecutive breaches (20% at Feb 15, then 16.7% at Mar 1).
func flagLink(t *testing.T, env *testEnv, linkID uuid.UUID) {
	t.Helper()
	recordMeasured(t, env, linkID, "2024-02-15", 300)
	res := recordMeasured(t, env, linkID, "2024-03-01", 350)
	if !res.ReplanSuggested {
		t.Fatal("seed: link should be flagged after two breaches")
	}
}

func expectedSeries(t *testing.T, env *testEnv, linkID uuid.UUID) []*types.MeasureDataPoint {
	t.Helper()
	rows, err := env.points.GetSeries(context.Background(), repos.SeriesQuery{
		LinkID:   linkID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		t.Fatalf("load expected series: %v", err)
	}
	return rows
}

func TestAdjustRequiresFlaggedState(t *testing.T) {
	env := newTestEnv(t)
	link := seedLinkedPlan(t, env, fp(10))

	_, err := env.replan.Adjust(context.Background(), link.ID, AdjustInput{
		Strategy: types.ReplanMaintainFinalGoal,
		ActorID:  uuid.New(),
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("adjust on a normal link: want conflict, got %v", err)
	}
}

func TestAdjustMaintainFinalGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, fp(10))
	flagLink(t, env, link.ID)

	result, err := env.replan.Adjust(ctx, link.ID, AdjustInput{
		Strategy: types.ReplanMaintainFinalGoal,
		Reason:   "keeping the quarter goal",
		ActorID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	// The anchor (Mar 1, 350) joins the series; the final point stays.
	rows := expectedSeries(t, env, link.ID)
	if len(rows) != 3 {
		t.Fatalf("want 3 expected points after adjust, got %d", len(rows))
	}
	if !rows[1].EffectiveDate.Equal(day(t, "2024-03-01")) || rows[1].Value != 350 {
		t.Fatalf("anchor point: want (2024-03-01, 350), got (%s, %v)", rows[1].EffectiveDate, rows[1].Value)
	}
	if rows[2].Value != 400 {
		t.Fatalf("final goal must be preserved, got %v", rows[2].Value)
	}

	reloaded, err := env.links.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if reloaded.ReplanState != types.ReplanStateNormal {
		t.Fatalf("replan state: want normal, got %q", reloaded.ReplanState)
	}
	if reloaded.ConsecutiveBreaches != 0 {
		t.Fatalf("breach streak should reset, got %d", reloaded.ConsecutiveBreaches)
	}

	if result.Adjustment == nil || result.Adjustment.Strategy != types.ReplanMaintainFinalGoal {
		t.Fatalf("adjustment row: %+v", result.Adjustment)
	}
	history, err := env.replan.History(ctx, link.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("want 1 adjustment in history, got %d", len(history))
	}
	if len(history[0].PreviousSeries) == 0 || len(history[0].NewSeries) == 0 {
		t.Fatal("adjustment must record both series for the audit trail")
	}
}

func TestAdjustProportionalShift(t *testing.T) {
	env := newTestEnv(t)
	link := seedLinkedPlan(t, env, fp(10))
	flagLink(t, env, link.ID)

	// Latest actual is (Mar 1, 350) against an expected 300: every
	// point from the anchor on shifts by +50.
	if _, err := env.replan.Adjust(context.Background(), link.ID, AdjustInput{
		Strategy: types.ReplanProportionalShift,
		ActorID:  uuid.New(),
	}); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	rows := expectedSeries(t, env, link.ID)
	first, last := rows[0], rows[len(rows)-1]
	if first.Value != 100 {
		t.Fatalf("points before the anchor stay put, got %v", first.Value)
	}
	if last.Value != 450 {
		t.Fatalf("final point: want 450 after shift, got %v", last.Value)
	}
}

func TestAdjustCustomSeries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, fp(10))
	flagLink(t, env, link.ID)

	// A custom series starting before the anchor is rejected.
	if _, err := env.replan.Adjust(ctx, link.ID, AdjustInput{
		Strategy: types.ReplanCustom,
		CustomSeries: []planning.SeriesPoint{
			{Date: day(t, "2024-01-15"), Value: 120},
			{Date: day(t, "2024-03-31"), Value: 420},
		},
		ActorID: uuid.New(),
	}); !apperr.IsValidation(err) {
		t.Fatalf("custom series before anchor: want validation error, got %v", err)
	}

	result, err := env.replan.Adjust(ctx, link.ID, AdjustInput{
		Strategy: types.ReplanCustom,
		CustomSeries: []planning.SeriesPoint{
			{Date: day(t, "2024-03-01"), Value: 350},
			{Date: day(t, "2024-03-31"), Value: 420},
		},
		Reason:  "managed reset",
		ActorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if len(result.NewSeries) != 2 {
		t.Fatalf("want 2 replacement points, got %d", len(result.NewSeries))
	}

	// Pre-anchor history is untouched; the future is replaced.
	rows := expectedSeries(t, env, link.ID)
	if len(rows) != 3 {
		t.Fatalf("want 3 expected points, got %d", len(rows))
	}
	if rows[0].Value != 100 {
		t.Fatalf("pre-anchor point: want 100, got %v", rows[0].Value)
	}
	if rows[2].Value != 420 {
		t.Fatalf("replacement final: want 420, got %v", rows[2].Value)
	}
}

func TestDismissAndReflag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, fp(10))
	flagLink(t, env, link.ID)

	if err := env.replan.Dismiss(ctx, link.ID, "expected seasonal dip", uuid.New()); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	reloaded, err := env.links.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if reloaded.ReplanState != types.ReplanStateDismissed {
		t.Fatalf("replan state: want dismissed, got %q", reloaded.ReplanState)
	}

	// Dismissing is not adjusting: the flag is required for both.
	if _, err := env.replan.Adjust(ctx, link.ID, AdjustInput{Strategy: types.ReplanMaintainFinalGoal, ActorID: uuid.New()}); !apperr.IsConflict(err) {
		t.Fatalf("adjust after dismissal: want conflict, got %v", err)
	}
	if err := env.replan.Dismiss(ctx, link.ID, "again", uuid.New()); !apperr.IsConflict(err) {
		t.Fatalf("double dismissal: want conflict, got %v", err)
	}

	// A fresh breach streak can flag the link again.
	recordMeasured(t, env, link.ID, "2024-03-10", 400)
	res := recordMeasured(t, env, link.ID, "2024-03-20", 450)
	if !res.ReplanSuggested {
		t.Fatal("a dismissed link should re-flag on a new breach streak")
	}
}
