package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/types"
)

// seedImpactLink links the measure to a fresh goal, lays down the
// standard 100 -> 400 expected line and records one measured reading.
func seedImpactLink(t *testing.T, env *testEnv, measureID uuid.UUID, weight *float64, actual float64) *types.MeasureLink {
	t.Helper()
	ctx := context.Background()
	link, err := env.links.CreateLink(ctx, uuid.New(), CreateLinkInput{
		MeasureID: measureID,
		PersonID:  uuid.New(),
		GoalID:    idp(),
		Weight:    weight,
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
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
			RecordedBy:    uuid.New(),
		}); err != nil {
			t.Fatalf("seed target: %v", err)
		}
	}
	recordMeasured(t, env, link.ID, "2024-02-15", actual)
	return link
}

func TestGetImpactClassifiesPerGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	measureID := uuid.New()

	// 20% variance at full weight scores 20: high. The same variance
	// at weight 0.2 scores 4: medium.
	heavy := seedImpactLink(t, env, measureID, fp(1.0), 300)
	light := seedImpactLink(t, env, measureID, fp(0.2), 300)

	// Personal links carry no goal context and stay out of the read.
	if _, err := env.links.CreateLink(ctx, uuid.New(), CreateLinkInput{MeasureID: measureID, PersonID: uuid.New()}); err != nil {
		t.Fatalf("personal link: %v", err)
	}

	rows, err := env.impact.GetImpact(ctx, measureID)
	if err != nil {
		t.Fatalf("get impact: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 goal rows, got %d", len(rows))
	}

	byLink := make(map[uuid.UUID]ImpactRow, len(rows))
	for _, row := range rows {
		byLink[row.LinkID] = row
	}
	if got := byLink[heavy.ID].ImpactLevel; got != planning.ImpactHigh {
		t.Fatalf("heavy link: want high, got %q", got)
	}
	if got := byLink[light.ID].ImpactLevel; got != planning.ImpactMedium {
		t.Fatalf("light link: want medium, got %q", got)
	}
	if pct := byLink[heavy.ID].CurrentAlignment; pct == nil || *pct != 20 {
		t.Fatalf("current alignment: want 20, got %v", pct)
	}
}

func TestGetImpactWithoutDataIsNone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	measureID := uuid.New()

	if _, err := env.links.CreateLink(ctx, uuid.New(), CreateLinkInput{
		MeasureID: measureID,
		PersonID:  uuid.New(),
		GoalID:    idp(),
	}); err != nil {
		t.Fatalf("create link: %v", err)
	}

	rows, err := env.impact.GetImpact(ctx, measureID)
	if err != nil {
		t.Fatalf("get impact: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].ImpactLevel != planning.ImpactNone {
		t.Fatalf("impact level: want none, got %q", rows[0].ImpactLevel)
	}
	if rows[0].CurrentAlignment != nil {
		t.Fatalf("no readings means no alignment, got %v", rows[0].CurrentAlignment)
	}
}

func TestGetImpactUnknownMeasureIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	rows, err := env.impact.GetImpact(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get impact: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want no rows, got %d", len(rows))
	}
}
