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

// seedLinkedPlan creates a goal-level link and an Expected line from
// (2024-01-01, 100) to (2024-03-31, 400), a 90 day span.
func seedLinkedPlan(t *testing.T, env *testEnv, threshold *float64) *types.MeasureLink {
	t.Helper()
	ctx := context.Background()
	link, err := env.links.CreateLink(ctx, uuid.New(), CreateLinkInput{
		MeasureID:    uuid.New(),
		PersonID:     uuid.New(),
		GoalID:       idp(),
		ThresholdPct: threshold,
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	recordedBy := uuid.New()
	for _, p := range []struct {
		date  string
		value float64
	}{
		{"2024-01-01", 100},
		{"2024-03-31", 400},
	} {
		if _, err := env.points.CreateTarget(ctx, link.ID, CreateTargetInput{
			Subtype:       types.SubtypeExpected,
			Value:         p.value,
			EffectiveDate: day(t, p.date),
			RecordedBy:    recordedBy,
		}); err != nil {
			t.Fatalf("seed target %s: %v", p.date, err)
		}
	}
	return link
}

func recordMeasured(t *testing.T, env *testEnv, linkID uuid.UUID, date string, value float64) *RecordActualResult {
	t.Helper()
	res, err := env.points.RecordActual(context.Background(), linkID, RecordActualInput{
		Subtype:       types.SubtypeMeasured,
		Value:         value,
		EffectiveDate: day(t, date),
		Source:        "test",
		RecordedBy:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("record actual %s=%v: %v", date, value, err)
	}
	return res
}

func TestRecordActualComputesVarianceInline(t *testing.T) {
	env := newTestEnv(t)
	link := seedLinkedPlan(t, env, nil)

	res := recordMeasured(t, env, link.ID, "2024-02-15", 300)

	if res.Variance.Expected == nil || *res.Variance.Expected != 250 {
		t.Fatalf("expected value: want 250, got %v", res.Variance.Expected)
	}
	if res.Variance.Diff == nil || *res.Variance.Diff != 50 {
		t.Fatalf("diff: want 50, got %v", res.Variance.Diff)
	}
	if res.Variance.Pct == nil || *res.Variance.Pct != 20 {
		t.Fatalf("pct: want 20, got %v", res.Variance.Pct)
	}
	if res.Favorability != planning.FavorabilityFavorable {
		t.Fatalf("favorability: want favorable, got %q", res.Favorability)
	}
	if res.ReplanSuggested {
		t.Fatal("no threshold configured, nothing to suggest")
	}
}

func TestRecordActualWithoutExpectedSeries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link, err := env.links.CreateLink(ctx, uuid.New(), CreateLinkInput{
		MeasureID:    uuid.New(),
		PersonID:     uuid.New(),
		GoalID:       idp(),
		ThresholdPct: fp(10),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	res := recordMeasured(t, env, link.ID, "2024-02-15", 300)

	if res.Variance.Expected != nil || res.Variance.Pct != nil {
		t.Fatalf("variance should be undefined, got %+v", res.Variance)
	}
	if res.Favorability != planning.FavorabilityUnknown {
		t.Fatalf("favorability: want unknown, got %q", res.Favorability)
	}
	if res.ReplanSuggested {
		t.Fatal("undefined variance must never trigger a replan")
	}

	reloaded, err := env.links.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if reloaded.ConsecutiveBreaches != 0 {
		t.Fatalf("breach streak should be untouched, got %d", reloaded.ConsecutiveBreaches)
	}
}

func TestRecordActualConsecutiveBreachesFlagReplan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, fp(10))

	// Expected at Feb 15 is 250; 300 is a 20% breach, first of the
	// streak.
	first := recordMeasured(t, env, link.ID, "2024-02-15", 300)
	if first.ReplanSuggested {
		t.Fatal("one breach should not flag with required count 2")
	}

	// Expected at Mar 1 is 300; 350 is a 16.7% breach, second in a
	// row.
	second := recordMeasured(t, env, link.ID, "2024-03-01", 350)
	if !second.ReplanSuggested {
		t.Fatal("second consecutive breach should flag a replan")
	}
	if !second.Point.ReplanTriggered {
		t.Fatal("triggering point should carry the replan marker")
	}

	reloaded, err := env.links.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if reloaded.ReplanState != types.ReplanStateFlagged {
		t.Fatalf("replan state: want flagged, got %q", reloaded.ReplanState)
	}

	// Already flagged; further breaches must not re-suggest.
	third := recordMeasured(t, env, link.ID, "2024-03-15", 450)
	if third.ReplanSuggested {
		t.Fatal("an already flagged link should not re-flag")
	}
}

func TestRecordActualBreachStreakResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, fp(10))

	recordMeasured(t, env, link.ID, "2024-02-15", 300) // 20% breach
	recordMeasured(t, env, link.ID, "2024-03-01", 315) // 5%, back inside
	res := recordMeasured(t, env, link.ID, "2024-03-15", 450) // breach again, streak restarts

	if res.ReplanSuggested {
		t.Fatal("streak was reset, one breach should not flag")
	}
	reloaded, err := env.links.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if reloaded.ReplanState != types.ReplanStateNormal {
		t.Fatalf("replan state: want normal, got %q", reloaded.ReplanState)
	}
	if reloaded.ConsecutiveBreaches != 1 {
		t.Fatalf("breach streak: want 1, got %d", reloaded.ConsecutiveBreaches)
	}
}

func TestRecordActualExactThresholdIsNotBreach(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, fp(10))

	// Expected 250, actual 275 is exactly 10%.
	recordMeasured(t, env, link.ID, "2024-02-15", 275)

	reloaded, err := env.links.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if reloaded.ConsecutiveBreaches != 0 {
		t.Fatalf("exactly-at-threshold must not count as a breach, streak=%d", reloaded.ConsecutiveBreaches)
	}
}

func TestRecordActualDuplicateDateConflict(t *testing.T) {
	env := newTestEnv(t)
	link := seedLinkedPlan(t, env, nil)

	recordMeasured(t, env, link.ID, "2024-02-15", 300)
	_, err := env.points.RecordActual(context.Background(), link.ID, RecordActualInput{
		Subtype:       types.SubtypeMeasured,
		Value:         310,
		EffectiveDate: day(t, "2024-02-15"),
		RecordedBy:    uuid.New(),
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("duplicate actual for a date: want conflict, got %v", err)
	}
}

func TestCreateTargetValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)

	if _, err := env.points.CreateTarget(ctx, link.ID, CreateTargetInput{
		Subtype:       "bogus",
		Value:         1,
		EffectiveDate: day(t, "2024-02-01"),
		RecordedBy:    uuid.New(),
	}); !apperr.IsValidation(err) {
		t.Fatalf("bad subtype: want validation error, got %v", err)
	}

	badConfidence := 6
	if _, err := env.points.CreateTarget(ctx, link.ID, CreateTargetInput{
		Subtype:       types.SubtypeOptimal,
		Value:         1,
		EffectiveDate: day(t, "2024-02-01"),
		Confidence:    &badConfidence,
		RecordedBy:    uuid.New(),
	}); !apperr.IsValidation(err) {
		t.Fatalf("confidence out of range: want validation error, got %v", err)
	}
}

func TestBatchUpsertTargetsIsAtomic(t *testing.T) {
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

	items := []TargetUpsertItem{
		{Subtype: types.SubtypeExpected, Value: 100, EffectiveDate: day(t, "2024-01-01")},
		{Subtype: "bogus", Value: 200, EffectiveDate: day(t, "2024-02-01")},
	}
	if _, err := env.points.BatchUpsertTargets(ctx, link.ID, items, uuid.New()); !apperr.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}

	rows, err := env.points.GetSeries(ctx, repos.SeriesQuery{LinkID: link.ID, Category: types.CategoryTarget})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("failed batch must write nothing, got %d rows", len(rows))
	}
}

func TestBatchUpsertTargetsCreatesAndUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)

	rows, err := env.points.GetSeries(ctx, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("seed series: want 2 rows, got %d", len(rows))
	}

	items := []TargetUpsertItem{
		{ID: &rows[1].ID, Subtype: types.SubtypeExpected, Value: 500, EffectiveDate: rows[1].EffectiveDate},
		{Subtype: types.SubtypeExpected, Value: 250, EffectiveDate: day(t, "2024-02-15")},
	}
	out, err := env.points.BatchUpsertTargets(ctx, link.ID, items, uuid.New())
	if err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 results, got %d", len(out))
	}

	rows, err = env.points.GetSeries(ctx, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		t.Fatalf("reload series: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 rows after upsert, got %d", len(rows))
	}
	if rows[2].Value != 500 {
		t.Fatalf("final point: want 500, got %v", rows[2].Value)
	}

	// Subtype is immutable on update.
	items = []TargetUpsertItem{{ID: &rows[0].ID, Subtype: types.SubtypeOptimal, Value: 1, EffectiveDate: rows[0].EffectiveDate}}
	if _, err := env.points.BatchUpsertTargets(ctx, link.ID, items, uuid.New()); !apperr.IsValidation(err) {
		t.Fatalf("subtype change: want validation error, got %v", err)
	}
}

func TestUpdateActualOverrideBookkeeping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)

	res := recordMeasured(t, env, link.ID, "2024-02-15", 300)

	if _, err := env.points.UpdateActual(ctx, res.Point.ID, 320, ""); !apperr.IsValidation(err) {
		t.Fatalf("correction without comment: want validation error, got %v", err)
	}

	updated, err := env.points.UpdateActual(ctx, res.Point.ID, 320, "sensor recalibrated")
	if err != nil {
		t.Fatalf("first correction: %v", err)
	}
	if updated.Value != 320 {
		t.Fatalf("value: want 320, got %v", updated.Value)
	}
	if !updated.ManualOverride {
		t.Fatal("manual override flag should latch")
	}
	if updated.OriginalValue == nil || *updated.OriginalValue != 300 {
		t.Fatalf("original value: want 300, got %v", updated.OriginalValue)
	}

	// A second correction keeps the first recorded value.
	updated, err = env.points.UpdateActual(ctx, res.Point.ID, 340, "second pass")
	if err != nil {
		t.Fatalf("second correction: %v", err)
	}
	if updated.OriginalValue == nil || *updated.OriginalValue != 300 {
		t.Fatalf("original value must not move, got %v", updated.OriginalValue)
	}
}

func TestUpdateTargetRejectsActuals(t *testing.T) {
	env := newTestEnv(t)
	link := seedLinkedPlan(t, env, nil)
	res := recordMeasured(t, env, link.ID, "2024-02-15", 300)

	if _, err := env.points.UpdateTarget(context.Background(), res.Point.ID, 1, nil); !apperr.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestBatchUpsertTargetsUpdateDateCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)

	rows, err := env.points.GetSeries(ctx, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("seed series: want 2 rows, got %d", len(rows))
	}

	// Moving the first point onto the second point's date lands on the
	// series uniqueness index.
	items := []TargetUpsertItem{
		{ID: &rows[0].ID, Subtype: types.SubtypeExpected, Value: 150, EffectiveDate: rows[1].EffectiveDate},
	}
	if _, err := env.points.BatchUpsertTargets(ctx, link.ID, items, uuid.New()); !apperr.IsConflict(err) {
		t.Fatalf("want conflict error, got %v", err)
	}
}

func TestGetSeriesDateRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link := seedLinkedPlan(t, env, nil)
	recordMeasured(t, env, link.ID, "2024-02-15", 240)

	from := day(t, "2024-02-01")
	to := day(t, "2024-02-29")
	rows, err := env.points.GetSeries(ctx, repos.SeriesQuery{
		LinkID: link.ID,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row in February, got %d", len(rows))
	}
	if !rows[0].EffectiveDate.Equal(day(t, "2024-02-15")) {
		t.Fatalf("row date: got %v", rows[0].EffectiveDate)
	}

	// An open-ended lower bound picks up everything from mid-February on.
	rows, err = env.points.GetSeries(ctx, repos.SeriesQuery{LinkID: link.ID, From: &from})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows from February on, got %d", len(rows))
	}
}
