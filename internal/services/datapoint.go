package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/apperr"
	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

type CreateTargetInput struct {
	Subtype       string
	Value         float64
	EffectiveDate time.Time
	Label         string
	Rationale     string
	Confidence    *int
	RecordedBy    uuid.UUID
}

// TargetUpsertItem is one element of a batch upsert. Items with an ID
// update the existing point; items without one create a new point.
type TargetUpsertItem struct {
	ID            *uuid.UUID
	Subtype       string
	Value         float64
	EffectiveDate time.Time
	Label         string
	Rationale     string
	Confidence    *int
}

type RecordActualInput struct {
	Subtype       string
	Value         float64
	EffectiveDate time.Time
	PeriodStart   *time.Time
	Label         string
	Source        string
	RecordedBy    uuid.UUID
}

// RecordActualResult carries the stored point plus the variance
// derived against the current Expected line. The variance is never
// persisted; replanning can rewrite the Expected series and every
// later read re-derives against the new one.
type RecordActualResult struct {
	Point           *types.MeasureDataPoint `json:"point"`
	Variance        planning.Variance       `json:"variance"`
	Favorability    string                  `json:"favorability"`
	ReplanSuggested bool                    `json:"replan_suggested"`
}

type DataPointService interface {
	CreateTarget(ctx context.Context, linkID uuid.UUID, in CreateTargetInput) (*types.MeasureDataPoint, error)
	BatchUpsertTargets(ctx context.Context, linkID uuid.UUID, items []TargetUpsertItem, recordedBy uuid.UUID) ([]*types.MeasureDataPoint, error)
	RecordActual(ctx context.Context, linkID uuid.UUID, in RecordActualInput) (*RecordActualResult, error)
	GetSeries(ctx context.Context, q repos.SeriesQuery) ([]*types.MeasureDataPoint, error)
	UpdateTarget(ctx context.Context, id uuid.UUID, value float64, rationale *string) (*types.MeasureDataPoint, error)
	UpdateActual(ctx context.Context, id uuid.UUID, value float64, overrideComment string) (*types.MeasureDataPoint, error)
}

type dataPointService struct {
	db        *gorm.DB
	log       *logger.Logger
	linkRepo  repos.MeasureLinkRepo
	pointRepo repos.MeasureDataPointRepo
	notifier  PlanNotifier
}

func NewDataPointService(
	db *gorm.DB,
	log *logger.Logger,
	linkRepo repos.MeasureLinkRepo,
	pointRepo repos.MeasureDataPointRepo,
	notifier PlanNotifier,
) DataPointService {
	serviceLog := log.With("service", "DataPointService")
	return &dataPointService{
		db:        db,
		log:       serviceLog,
		linkRepo:  linkRepo,
		pointRepo: pointRepo,
		notifier:  notifier,
	}
}

func (s *dataPointService) getLink(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) (*types.MeasureLink, error) {
	link, err := s.linkRepo.GetByID(ctx, tx, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("link %s not found", linkID)
		}
		return nil, err
	}
	return link, nil
}

func (s *dataPointService) CreateTarget(ctx context.Context, linkID uuid.UUID, in CreateTargetInput) (*types.MeasureDataPoint, error) {
	link, err := s.getLink(ctx, nil, linkID)
	if err != nil {
		return nil, err
	}

	point, err := types.NewTargetPoint(link.ID, in.Subtype, in.Value, in.EffectiveDate, in.Label, in.Rationale, in.Confidence, in.RecordedBy)
	if err != nil {
		return nil, err
	}
	if _, err := s.pointRepo.Create(ctx, nil, point); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("a %s target already exists for %s", in.Subtype, in.EffectiveDate.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("create target point: %w", err)
	}
	return point, nil
}

func (s *dataPointService) BatchUpsertTargets(ctx context.Context, linkID uuid.UUID, items []TargetUpsertItem, recordedBy uuid.UUID) ([]*types.MeasureDataPoint, error) {
	link, err := s.getLink(ctx, nil, linkID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []*types.MeasureDataPoint{}, nil
	}

	// One transaction: a partial failure must not leave a mixed
	// series.
	var out []*types.MeasureDataPoint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out = out[:0]
		var creates []*types.MeasureDataPoint
		for i, item := range items {
			if item.ID == nil {
				point, err := types.NewTargetPoint(link.ID, item.Subtype, item.Value, item.EffectiveDate, item.Label, item.Rationale, item.Confidence, recordedBy)
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				creates = append(creates, point)
				out = append(out, point)
				continue
			}

			point, err := s.pointRepo.GetByID(ctx, tx, *item.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("data point %s not found", *item.ID)
				}
				return fmt.Errorf("item %d: load: %w", i, err)
			}
			if point.LinkID != link.ID {
				return apperr.Validation("data point %s does not belong to link %s", point.ID, link.ID)
			}
			if !point.IsTarget() {
				return apperr.Validation("data point %s is not a target; batch upsert covers targets only", point.ID)
			}
			if item.Subtype != "" && item.Subtype != point.Subtype {
				return apperr.Validation("data point subtype is immutable")
			}
			if item.Confidence != nil && (*item.Confidence < 1 || *item.Confidence > 5) {
				return apperr.Validation("confidence must be between 1 and 5, got %d", *item.Confidence)
			}
			point.Value = item.Value
			if !item.EffectiveDate.IsZero() {
				point.EffectiveDate = item.EffectiveDate.UTC()
			}
			if item.Label != "" {
				point.Label = item.Label
			}
			if item.Rationale != "" {
				point.Rationale = item.Rationale
			}
			if item.Confidence != nil {
				point.Confidence = item.Confidence
			}
			if err := s.pointRepo.Save(ctx, tx, point); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.Conflict("a %s target already exists for %s", point.Subtype, point.EffectiveDate.Format("2006-01-02"))
				}
				return fmt.Errorf("item %d: save: %w", i, err)
			}
			out = append(out, point)
		}
		if _, err := s.pointRepo.CreateMany(ctx, tx, creates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("a target already exists for one of the supplied dates")
			}
			return fmt.Errorf("create target points: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.TargetsUpserted(link.TenantID, link.ID, len(out))
	s.log.Info("targets upserted", "link_id", link.ID, "count", len(out))
	return out, nil
}

func (s *dataPointService) RecordActual(ctx context.Context, linkID uuid.UUID, in RecordActualInput) (*RecordActualResult, error) {
	link, err := s.getLink(ctx, nil, linkID)
	if err != nil {
		return nil, err
	}

	point, err := types.NewActualPoint(link.ID, in.Subtype, in.Value, in.EffectiveDate, in.Label, in.Source, in.PeriodStart, in.RecordedBy)
	if err != nil {
		return nil, err
	}

	expectedRows, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		return nil, fmt.Errorf("load expected series: %w", err)
	}

	expected, err := planning.ExpectedValueAt(toSeriesPoints(expectedRows), point.EffectiveDate, link.InterpolationMethod)
	if err != nil {
		return nil, err
	}
	variance := planning.ComputeVariance(point.Value, expected)

	suggested := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read under the transaction so concurrent recordings do
		// not clobber the breach streak.
		current, err := s.getLink(ctx, tx, link.ID)
		if err != nil {
			return err
		}
		if current.ThresholdPct != nil && variance.Pct != nil {
			if planning.BreachesThreshold(variance.Pct, *current.ThresholdPct) {
				if planning.ShouldSuggestReplan(variance.Pct, *current.ThresholdPct, current.ConsecutiveBreaches, current.ReplanRequiredCount) &&
					current.ReplanState != types.ReplanStateFlagged {
					current.ReplanState = types.ReplanStateFlagged
					point.ReplanTriggered = true
					suggested = true
				}
				current.ConsecutiveBreaches++
			} else {
				current.ConsecutiveBreaches = 0
			}
		}
		if _, err := s.pointRepo.Create(ctx, tx, point); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("a %s actual already exists for %s", in.Subtype, in.EffectiveDate.Format("2006-01-02"))
			}
			return fmt.Errorf("create actual point: %w", err)
		}
		if err := s.linkRepo.Save(ctx, tx, current); err != nil {
			return fmt.Errorf("save link state: %w", err)
		}
		*link = *current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ActualRecorded(link.TenantID, link.ID, point.ID, variance.Pct)
	if suggested {
		s.notifier.ReplanFlagged(link.TenantID, link.ID)
		s.log.Info("replan flagged", "link_id", link.ID, "variance_pct", variance.Pct)
	}

	return &RecordActualResult{
		Point:           point,
		Variance:        variance,
		Favorability:    planning.Favorability(variance, link.Direction),
		ReplanSuggested: suggested,
	}, nil
}

func (s *dataPointService) GetSeries(ctx context.Context, q repos.SeriesQuery) ([]*types.MeasureDataPoint, error) {
	if q.Category != "" && q.Category != types.CategoryTarget && q.Category != types.CategoryActual {
		return nil, apperr.Validation("unknown category %q", q.Category)
	}
	if _, err := s.getLink(ctx, nil, q.LinkID); err != nil {
		return nil, err
	}
	return s.pointRepo.ListSeries(ctx, nil, q)
}

func (s *dataPointService) UpdateTarget(ctx context.Context, id uuid.UUID, value float64, rationale *string) (*types.MeasureDataPoint, error) {
	point, err := s.pointRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("data point %s not found", id)
		}
		return nil, err
	}
	if !point.IsTarget() {
		return nil, apperr.Validation("data point %s is not a target", id)
	}
	point.Value = value
	if rationale != nil {
		point.Rationale = *rationale
	}
	if err := s.pointRepo.Save(ctx, nil, point); err != nil {
		return nil, fmt.Errorf("save target point: %w", err)
	}
	return point, nil
}

func (s *dataPointService) UpdateActual(ctx context.Context, id uuid.UUID, value float64, overrideComment string) (*types.MeasureDataPoint, error) {
	point, err := s.pointRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("data point %s not found", id)
		}
		return nil, err
	}
	if !point.IsActual() {
		return nil, apperr.Validation("data point %s is not an actual", id)
	}
	if overrideComment == "" {
		return nil, apperr.Validation("an override comment is required when correcting an actual")
	}
	// The first correction pins the original value; the override flag
	// never resets.
	if !point.ManualOverride {
		original := point.Value
		point.OriginalValue = &original
		point.ManualOverride = true
	}
	point.Value = value
	point.OverrideComment = overrideComment
	if err := s.pointRepo.Save(ctx, nil, point); err != nil {
		return nil, fmt.Errorf("save actual point: %w", err)
	}
	return point, nil
}

// toSeriesPoints converts stored rows into the planning package's
// series shape, preserving order.
func toSeriesPoints(rows []*types.MeasureDataPoint) []planning.SeriesPoint {
	out := make([]planning.SeriesPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, planning.SeriesPoint{ID: r.ID, Date: r.EffectiveDate, Value: r.Value})
	}
	return out
}

// authoritativeActuals collapses the actual series so that, per
// effective date, a Measured reading wins over an Estimate. Order is
// preserved (input must be date ascending).
func authoritativeActuals(rows []*types.MeasureDataPoint) []*types.MeasureDataPoint {
	out := make([]*types.MeasureDataPoint, 0, len(rows))
	for _, r := range rows {
		if len(out) > 0 && sameEffectiveDate(out[len(out)-1], r) {
			if out[len(out)-1].Subtype == types.SubtypeEstimate && r.Subtype == types.SubtypeMeasured {
				out[len(out)-1] = r
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func sameEffectiveDate(a, b *types.MeasureDataPoint) bool {
	ay, am, ad := a.EffectiveDate.UTC().Date()
	by, bm, bd := b.EffectiveDate.UTC().Date()
	return ay == by && am == bm && ad == bd
}
