package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/apperr"
	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

// Plan statuses reported on the planning read.
const (
	StatusOnTrack  = "on_track"
	StatusAtRisk   = "at_risk"
	StatusOffTrack = "off_track"
	StatusNoData   = "no_data"
)

type PlanSummary struct {
	LatestActualValue *float64           `json:"latest_actual_value,omitempty"`
	LatestActualDate  *time.Time         `json:"latest_actual_date,omitempty"`
	CurrentExpected   *float64           `json:"current_expected,omitempty"`
	Variance          *planning.Variance `json:"variance,omitempty"`
	Favorability      string             `json:"favorability"`
	Status            string             `json:"status"`
	ReplanState       string             `json:"replan_state"`
}

// PlanView is the full planning read for one link: all three target
// lines, the actual line, and a derived summary.
type PlanView struct {
	Link     *types.MeasureLink        `json:"link"`
	Expected []*types.MeasureDataPoint `json:"expected"`
	Optimal  []*types.MeasureDataPoint `json:"optimal"`
	Minimal  []*types.MeasureDataPoint `json:"minimal"`
	Actuals  []*types.MeasureDataPoint `json:"actuals"`
	Summary  PlanSummary               `json:"summary"`
}

type PlanViewService interface {
	GetPlanView(ctx context.Context, linkID uuid.UUID) (*PlanView, error)
}

type planViewService struct {
	db        *gorm.DB
	log       *logger.Logger
	linkRepo  repos.MeasureLinkRepo
	pointRepo repos.MeasureDataPointRepo
}

func NewPlanViewService(
	db *gorm.DB,
	log *logger.Logger,
	linkRepo repos.MeasureLinkRepo,
	pointRepo repos.MeasureDataPointRepo,
) PlanViewService {
	serviceLog := log.With("service", "PlanViewService")
	return &planViewService{
		db:        db,
		log:       serviceLog,
		linkRepo:  linkRepo,
		pointRepo: pointRepo,
	}
}

func (s *planViewService) GetPlanView(ctx context.Context, linkID uuid.UUID) (*PlanView, error) {
	link, err := s.linkRepo.GetByID(ctx, nil, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("link %s not found", linkID)
		}
		return nil, err
	}

	targets, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{LinkID: link.ID, Category: types.CategoryTarget})
	if err != nil {
		return nil, err
	}
	actuals, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{LinkID: link.ID, Category: types.CategoryActual})
	if err != nil {
		return nil, err
	}

	view := &PlanView{
		Link:     link,
		Expected: []*types.MeasureDataPoint{},
		Optimal:  []*types.MeasureDataPoint{},
		Minimal:  []*types.MeasureDataPoint{},
		Actuals:  actuals,
	}
	for _, t := range targets {
		switch t.Subtype {
		case types.SubtypeExpected:
			view.Expected = append(view.Expected, t)
		case types.SubtypeOptimal:
			view.Optimal = append(view.Optimal, t)
		case types.SubtypeMinimal:
			view.Minimal = append(view.Minimal, t)
		}
	}

	view.Summary = summarize(link, view.Expected, actuals)
	return view, nil
}

func summarize(link *types.MeasureLink, expectedRows, actualRows []*types.MeasureDataPoint) PlanSummary {
	summary := PlanSummary{
		Favorability: planning.FavorabilityUnknown,
		Status:       StatusNoData,
		ReplanState:  link.ReplanState,
	}

	resolved := authoritativeActuals(actualRows)
	if len(resolved) == 0 {
		return summary
	}
	latest := resolved[len(resolved)-1]
	summary.LatestActualValue = &latest.Value
	summary.LatestActualDate = &latest.EffectiveDate

	expected, err := planning.ExpectedValueAt(toSeriesPoints(expectedRows), latest.EffectiveDate, link.InterpolationMethod)
	if err != nil || expected == nil {
		return summary
	}
	summary.CurrentExpected = expected

	variance := planning.ComputeVariance(latest.Value, expected)
	summary.Variance = &variance
	summary.Favorability = planning.Favorability(variance, link.Direction)

	switch summary.Favorability {
	case planning.FavorabilityFavorable, planning.FavorabilityOnTarget:
		summary.Status = StatusOnTrack
	case planning.FavorabilityUnfavorable:
		if link.ThresholdPct != nil && planning.BreachesThreshold(variance.Pct, *link.ThresholdPct) {
			summary.Status = StatusOffTrack
		} else {
			summary.Status = StatusAtRisk
		}
	default:
		summary.Status = StatusNoData
	}
	return summary
}
