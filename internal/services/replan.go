package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/apperr"
	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

type AdjustInput struct {
	Strategy     string
	CustomSeries []planning.SeriesPoint
	Reason       string
	ActorID      uuid.UUID
}

type AdjustResult struct {
	Adjustment *types.ReplanAdjustment   `json:"adjustment"`
	NewSeries  []*types.MeasureDataPoint `json:"new_series"`
}

// ReplanService drives the per-link replan state machine:
// normal -> flagged (via recorded actuals) -> adjusted (re-enters
// normal) or flagged -> dismissed.
type ReplanService interface {
	Adjust(ctx context.Context, linkID uuid.UUID, in AdjustInput) (*AdjustResult, error)
	Dismiss(ctx context.Context, linkID uuid.UUID, reason string, actorID uuid.UUID) error
	History(ctx context.Context, linkID uuid.UUID) ([]*types.ReplanAdjustment, error)
}

type replanService struct {
	db        *gorm.DB
	log       *logger.Logger
	linkRepo  repos.MeasureLinkRepo
	pointRepo repos.MeasureDataPointRepo
	adjRepo   repos.ReplanAdjustmentRepo
	notifier  PlanNotifier
}

func NewReplanService(
	db *gorm.DB,
	log *logger.Logger,
	linkRepo repos.MeasureLinkRepo,
	pointRepo repos.MeasureDataPointRepo,
	adjRepo repos.ReplanAdjustmentRepo,
	notifier PlanNotifier,
) ReplanService {
	serviceLog := log.With("service", "ReplanService")
	return &replanService{
		db:        db,
		log:       serviceLog,
		linkRepo:  linkRepo,
		pointRepo: pointRepo,
		adjRepo:   adjRepo,
		notifier:  notifier,
	}
}

func (s *replanService) Adjust(ctx context.Context, linkID uuid.UUID, in AdjustInput) (*AdjustResult, error) {
	if !types.ValidReplanStrategy(in.Strategy) {
		return nil, apperr.Validation("unknown replan strategy %q", in.Strategy)
	}

	link, err := s.linkRepo.GetByID(ctx, nil, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("link %s not found", linkID)
		}
		return nil, err
	}
	if link.ReplanState != types.ReplanStateFlagged {
		return nil, apperr.Conflict("link %s is not flagged for replanning (state %s)", link.ID, link.ReplanState)
	}

	expectedRows, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryTarget,
		Subtype:  types.SubtypeExpected,
	})
	if err != nil {
		return nil, fmt.Errorf("load expected series: %w", err)
	}
	if len(expectedRows) == 0 {
		return nil, apperr.Validation("link %s has no expected target series to adjust", link.ID)
	}

	actualRows, err := s.pointRepo.ListSeries(ctx, nil, repos.SeriesQuery{
		LinkID:   link.ID,
		Category: types.CategoryActual,
	})
	if err != nil {
		return nil, fmt.Errorf("load actual series: %w", err)
	}
	resolved := authoritativeActuals(actualRows)
	if len(resolved) == 0 {
		return nil, apperr.Validation("link %s has no actual readings to anchor a replan", link.ID)
	}
	trigger := resolved[len(resolved)-1]
	anchor := planning.Anchor{Date: trigger.EffectiveDate, Value: trigger.Value}

	oldSeries := toSeriesPoints(expectedRows)
	newSeries, err := s.computeSeries(oldSeries, anchor, link, in)
	if err != nil {
		return nil, err
	}

	prevJSON, err := json.Marshal(oldSeries)
	if err != nil {
		return nil, fmt.Errorf("marshal previous series: %w", err)
	}
	newJSON, err := json.Marshal(newSeries)
	if err != nil {
		return nil, fmt.Errorf("marshal new series: %w", err)
	}

	adjustment := &types.ReplanAdjustment{
		LinkID:             link.ID,
		Strategy:           in.Strategy,
		TriggeringActualID: trigger.ID,
		PreviousSeries:     datatypes.JSON(prevJSON),
		NewSeries:          datatypes.JSON(newJSON),
		Reason:             in.Reason,
		AdjustedBy:         in.ActorID,
	}

	var stored []*types.MeasureDataPoint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored = stored[:0]
		if in.Strategy == types.ReplanCustom {
			// The replacement series supersedes every future expected
			// point; the audit row above preserves what was there.
			if err := s.deleteExpectedFrom(ctx, tx, link.ID, anchor); err != nil {
				return err
			}
			for _, p := range newSeries {
				if p.Date.Before(anchor.Date) {
					continue
				}
				point, err := types.NewTargetPoint(link.ID, types.SubtypeExpected, p.Value, p.Date, "", in.Reason, nil, in.ActorID)
				if err != nil {
					return err
				}
				if _, err := s.pointRepo.Create(ctx, tx, point); err != nil {
					return fmt.Errorf("create replacement point: %w", err)
				}
				stored = append(stored, point)
			}
		} else {
			byID := make(map[uuid.UUID]*types.MeasureDataPoint, len(expectedRows))
			for _, row := range expectedRows {
				byID[row.ID] = row
			}
			for _, p := range newSeries {
				if p.ID != uuid.Nil {
					row := byID[p.ID]
					if row == nil {
						continue
					}
					if row.Value != p.Value {
						row.Value = p.Value
						if err := s.pointRepo.Save(ctx, tx, row); err != nil {
							return fmt.Errorf("save adjusted point: %w", err)
						}
					}
					stored = append(stored, row)
					continue
				}
				point, err := types.NewTargetPoint(link.ID, types.SubtypeExpected, p.Value, p.Date, "", in.Reason, nil, in.ActorID)
				if err != nil {
					return err
				}
				if _, err := s.pointRepo.Create(ctx, tx, point); err != nil {
					return fmt.Errorf("create adjusted point: %w", err)
				}
				stored = append(stored, point)
			}
		}

		if _, err := s.adjRepo.Create(ctx, tx, adjustment); err != nil {
			return fmt.Errorf("record adjustment: %w", err)
		}

		link.ReplanState = types.ReplanStateNormal
		link.ConsecutiveBreaches = 0
		if err := s.linkRepo.Save(ctx, tx, link); err != nil {
			return fmt.Errorf("save link state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ReplanAdjusted(link.TenantID, link.ID, adjustment.ID)
	s.log.Info("replan adjusted", "link_id", link.ID, "strategy", in.Strategy, "adjustment_id", adjustment.ID)
	return &AdjustResult{Adjustment: adjustment, NewSeries: stored}, nil
}

func (s *replanService) computeSeries(oldSeries []planning.SeriesPoint, anchor planning.Anchor, link *types.MeasureLink, in AdjustInput) ([]planning.SeriesPoint, error) {
	switch in.Strategy {
	case types.ReplanMaintainFinalGoal:
		out, err := planning.MaintainFinalGoal(oldSeries, anchor, link.InterpolationMethod)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		return out, nil
	case types.ReplanProportionalShift:
		expected, err := planning.ExpectedValueAt(oldSeries, anchor.Date, link.InterpolationMethod)
		if err != nil {
			return nil, err
		}
		if expected == nil {
			return nil, apperr.Validation("no expected value at the latest actual's date; cannot derive a shift delta")
		}
		out, err := planning.ProportionalShift(oldSeries, anchor, anchor.Value-*expected)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		return out, nil
	default:
		if err := planning.ValidateCustomSeries(in.CustomSeries, anchor); err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		return in.CustomSeries, nil
	}
}

func (s *replanService) deleteExpectedFrom(ctx context.Context, tx *gorm.DB, linkID uuid.UUID, anchor planning.Anchor) error {
	if err := tx.WithContext(ctx).
		Unscoped().
		Where("link_id = ? AND category = ? AND subtype = ? AND effective_date >= ?",
			linkID, types.CategoryTarget, types.SubtypeExpected, anchor.Date).
		Delete(&types.MeasureDataPoint{}).Error; err != nil {
		return fmt.Errorf("supersede future expected points: %w", err)
	}
	return nil
}

func (s *replanService) Dismiss(ctx context.Context, linkID uuid.UUID, reason string, actorID uuid.UUID) error {
	link, err := s.linkRepo.GetByID(ctx, nil, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("link %s not found", linkID)
		}
		return err
	}
	if link.ReplanState != types.ReplanStateFlagged {
		return apperr.Conflict("link %s is not flagged for replanning (state %s)", link.ID, link.ReplanState)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link.ReplanState = types.ReplanStateDismissed
		link.ConsecutiveBreaches = 0
		return s.linkRepo.Save(ctx, tx, link)
	})
	if err != nil {
		return err
	}

	s.notifier.ReplanDismissed(link.TenantID, link.ID)
	s.log.Info("replan dismissed", "link_id", link.ID, "reason", reason)
	return nil
}

func (s *replanService) History(ctx context.Context, linkID uuid.UUID) ([]*types.ReplanAdjustment, error) {
	return s.adjRepo.ListByLinkID(ctx, nil, linkID)
}
