package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

// ImpactRow is one goal-context row of the cross-context impact read
// for a measure: how hard the measure's current variance lands on that
// goal, weighted by the link's weight.
type ImpactRow struct {
	LinkID           uuid.UUID  `json:"link_id"`
	GoalID           uuid.UUID  `json:"goal_id"`
	StrategyID       *uuid.UUID `json:"strategy_id,omitempty"`
	ImpactLevel      string     `json:"impact_level"`
	ThresholdPct     *float64   `json:"threshold_pct,omitempty"`
	Weight           *float64   `json:"weight,omitempty"`
	CurrentAlignment *float64   `json:"current_alignment,omitempty"`
}

type ImpactService interface {
	GetImpact(ctx context.Context, measureID uuid.UUID) ([]ImpactRow, error)
}

type impactService struct {
	db        *gorm.DB
	log       *logger.Logger
	linkRepo  repos.MeasureLinkRepo
	pointRepo repos.MeasureDataPointRepo
	bands     planning.ImpactBands
}

func NewImpactService(
	db *gorm.DB,
	log *logger.Logger,
	linkRepo repos.MeasureLinkRepo,
	pointRepo repos.MeasureDataPointRepo,
	bands planning.ImpactBands,
) ImpactService {
	serviceLog := log.With("service", "ImpactService")
	return &impactService{
		db:        db,
		log:       serviceLog,
		linkRepo:  linkRepo,
		pointRepo: pointRepo,
		bands:     bands,
	}
}

// GetImpact is a pure read: it derives per-goal impact for every link
// of the measure and mutates nothing. Per-link derivation is
// independent, so the fan-out runs in parallel.
func (s *impactService) GetImpact(ctx context.Context, measureID uuid.UUID) ([]ImpactRow, error) {
	links, err := s.linkRepo.ListByMeasureID(ctx, nil, measureID)
	if err != nil {
		return nil, err
	}

	scoped := make([]*types.MeasureLink, 0, len(links))
	for _, link := range links {
		if link.GoalID != nil {
			scoped = append(scoped, link)
		}
	}
	rows := make([]ImpactRow, len(scoped))

	g, gctx := errgroup.WithContext(ctx)
	for i, link := range scoped {
		g.Go(func() error {
			row, err := s.impactForLink(gctx, link)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *impactService) impactForLink(ctx context.Context, link *types.MeasureLink) (ImpactRow, error) {
	row := ImpactRow{
		LinkID:       link.ID,
		GoalID:       *link.GoalID,
		StrategyID:   link.StrategyID,
		ThresholdPct: link.ThresholdPct,
		Weight:       link.Weight,
		ImpactLevel:  planning.ImpactNone,
	}

	expectedRows, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		return row, err
	}
	actualRows, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryActual,
	})
	if err != nil {
		return row, err
	}

	resolved := authoritativeActuals(actualRows)
	if len(resolved) == 0 {
		return row, nil
	}
	latest := resolved[len(resolved)-1]

	expected, err := planning.ExpectedValueAt(toSeriesPoints(expectedRows), latest.EffectiveDate, link.InterpolationMethod)
	if err != nil || expected == nil {
		return row, nil
	}

	variance := planning.ComputeVariance(latest.Value, expected)
	row.CurrentAlignment = variance.Pct
	row.ImpactLevel = s.bands.Classify(planning.Score(link.Weight, variance.Pct))
	return row, nil
}
