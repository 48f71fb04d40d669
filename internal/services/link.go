package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/apperr"
	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

type CreateLinkInput struct {
	MeasureID           uuid.UUID
	PersonID            uuid.UUID
	GoalID              *uuid.UUID
	StrategyID          *uuid.UUID
	ThresholdPct        *float64
	Weight              *float64
	LinkType            string
	DisplayOrder        int
	InterpolationMethod string
	Direction           string
	ReplanRequiredCount int
}

// UpdateLinkMetadataInput is a partial update; nil fields stay as
// they are.
type UpdateLinkMetadataInput struct {
	ThresholdPct *float64
	Weight       *float64
	DisplayOrder *int
	LinkType     *string
	PersonID     *uuid.UUID
}

type LinkService interface {
	CreateLink(ctx context.Context, tenantID uuid.UUID, in CreateLinkInput) (*types.MeasureLink, error)
	GetLink(ctx context.Context, linkID uuid.UUID) (*types.MeasureLink, error)
	ListLinks(ctx context.Context, tenantID uuid.UUID, filter repos.LinkFilter) ([]*types.MeasureLink, error)
	Unlink(ctx context.Context, linkID uuid.UUID, newPrimaryLinkID *uuid.UUID) error
	SetPrimary(ctx context.Context, linkID, goalID uuid.UUID) error
	UpdateMetadata(ctx context.Context, linkID uuid.UUID, in UpdateLinkMetadataInput) (*types.MeasureLink, error)
}

type linkService struct {
	db       *gorm.DB
	log      *logger.Logger
	linkRepo repos.MeasureLinkRepo
	lookup   RefLookup
	notifier PlanNotifier
}

func NewLinkService(
	db *gorm.DB,
	log *logger.Logger,
	linkRepo repos.MeasureLinkRepo,
	lookup RefLookup,
	notifier PlanNotifier,
) LinkService {
	serviceLog := log.With("service", "LinkService")
	return &linkService{
		db:       db,
		log:      serviceLog,
		linkRepo: linkRepo,
		lookup:   lookup,
		notifier: notifier,
	}
}

func (s *linkService) CreateLink(ctx context.Context, tenantID uuid.UUID, in CreateLinkInput) (*types.MeasureLink, error) {
	if in.MeasureID == uuid.Nil {
		return nil, apperr.Validation("measure id required")
	}
	if in.PersonID == uuid.Nil {
		return nil, apperr.Validation("person id required")
	}
	if in.StrategyID != nil && in.GoalID == nil {
		return nil, apperr.Validation("a strategy-level link must also reference its goal")
	}
	if err := validateThreshold(in.ThresholdPct); err != nil {
		return nil, err
	}
	if err := validateWeight(in.Weight); err != nil {
		return nil, err
	}
	method := in.InterpolationMethod
	if method == "" {
		method = types.InterpolationLinear
	}
	if method != types.InterpolationLinear && method != types.InterpolationStep && method != types.InterpolationExponential {
		return nil, apperr.Validation("unknown interpolation method %q", method)
	}
	direction := in.Direction
	if direction == "" {
		direction = types.DirectionUp
	}
	if direction != types.DirectionUp && direction != types.DirectionDown {
		return nil, apperr.Validation("direction must be %q or %q", types.DirectionUp, types.DirectionDown)
	}
	requiredCount := in.ReplanRequiredCount
	if requiredCount <= 0 {
		requiredCount = 2
	}

	if err := s.checkReferences(ctx, tenantID, in); err != nil {
		return nil, err
	}

	link := &types.MeasureLink{
		TenantID:            tenantID,
		MeasureID:           in.MeasureID,
		PersonID:            in.PersonID,
		GoalID:              in.GoalID,
		StrategyID:          in.StrategyID,
		ThresholdPct:        in.ThresholdPct,
		Weight:              in.Weight,
		LinkType:            in.LinkType,
		DisplayOrder:        in.DisplayOrder,
		InterpolationMethod: method,
		Direction:           direction,
		ReplanState:         types.ReplanStateNormal,
		ReplanRequiredCount: requiredCount,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.GoalID != nil {
			existing, err := s.linkRepo.ListByGoalID(ctx, tx, *in.GoalID)
			if err != nil {
				return fmt.Errorf("list goal links: %w", err)
			}
			for _, other := range existing {
				if other.MeasureID != in.MeasureID {
					continue
				}
				if in.StrategyID == nil && other.StrategyID == nil {
					return apperr.Conflict("measure already linked to this goal")
				}
				if in.StrategyID != nil && other.StrategyID != nil && *other.StrategyID == *in.StrategyID {
					return apperr.Conflict("measure already linked to this strategy")
				}
			}
			// First link for a goal becomes primary automatically.
			if len(existing) == 0 {
				link.IsPrimary = true
			}
		}
		if _, err := s.linkRepo.Create(ctx, tx, link); err != nil {
			// The partial unique indexes are the authoritative guard;
			// a lost check-then-insert race lands here.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("measure already linked in this context")
			}
			return fmt.Errorf("create link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.LinkCreated(tenantID, link)
	s.log.Info("link created", "link_id", link.ID, "measure_id", link.MeasureID, "primary", link.IsPrimary)
	return link, nil
}

func (s *linkService) checkReferences(ctx context.Context, tenantID uuid.UUID, in CreateLinkInput) error {
	if s.lookup == nil {
		return nil
	}
	ok, err := s.lookup.MeasureExists(ctx, tenantID, in.MeasureID)
	if err != nil {
		return fmt.Errorf("measure lookup: %w", err)
	}
	if !ok {
		return apperr.NotFound("measure %s not found", in.MeasureID)
	}
	ok, err = s.lookup.PersonExists(ctx, tenantID, in.PersonID)
	if err != nil {
		return fmt.Errorf("person lookup: %w", err)
	}
	if !ok {
		return apperr.NotFound("person %s not found", in.PersonID)
	}
	if in.GoalID != nil {
		ok, err = s.lookup.GoalExists(ctx, tenantID, *in.GoalID)
		if err != nil {
			return fmt.Errorf("goal lookup: %w", err)
		}
		if !ok {
			return apperr.NotFound("goal %s not found", *in.GoalID)
		}
	}
	if in.StrategyID != nil {
		ok, err = s.lookup.StrategyExists(ctx, tenantID, *in.StrategyID)
		if err != nil {
			return fmt.Errorf("strategy lookup: %w", err)
		}
		if !ok {
			return apperr.NotFound("strategy %s not found", *in.StrategyID)
		}
	}
	return nil
}

func (s *linkService) GetLink(ctx context.Context, linkID uuid.UUID) (*types.MeasureLink, error) {
	link, err := s.linkRepo.GetByID(ctx, nil, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("link %s not found", linkID)
		}
		return nil, err
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, tenantID uuid.UUID, filter repos.LinkFilter) ([]*types.MeasureLink, error) {
	return s.linkRepo.List(ctx, nil, tenantID, filter)
}

func (s *linkService) Unlink(ctx context.Context, linkID uuid.UUID, newPrimaryLinkID *uuid.UUID) error {
	link, err := s.GetLink(ctx, linkID)
	if err != nil {
		return err
	}

	var promoted *types.MeasureLink
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if link.IsPrimary && link.GoalID != nil {
			siblings, err := s.linkRepo.ListByGoalID(ctx, tx, *link.GoalID)
			if err != nil {
				return fmt.Errorf("list goal links: %w", err)
			}
			others := make([]*types.MeasureLink, 0, len(siblings))
			for _, other := range siblings {
				if other.ID != link.ID {
					others = append(others, other)
				}
			}
			if len(others) > 0 {
				if newPrimaryLinkID == nil {
					return apperr.Validation("cannot unlink the primary link while other links exist for the goal; supply a replacement primary")
				}
				for _, other := range others {
					if other.ID == *newPrimaryLinkID {
						promoted = other
						break
					}
				}
				if promoted == nil {
					return apperr.Validation("replacement primary %s is not linked to goal %s", *newPrimaryLinkID, *link.GoalID)
				}
			}
		}

		if err := s.linkRepo.SoftDeleteByID(ctx, tx, link.ID); err != nil {
			return fmt.Errorf("delete link: %w", err)
		}
		if promoted != nil {
			if err := s.linkRepo.MarkPrimary(ctx, tx, promoted.ID); err != nil {
				return fmt.Errorf("promote replacement primary: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.LinkRemoved(link.TenantID, link.ID)
	if promoted != nil && link.GoalID != nil {
		s.notifier.PrimaryChanged(link.TenantID, *link.GoalID, promoted.ID)
	}
	s.log.Info("link removed", "link_id", link.ID)
	return nil
}

func (s *linkService) SetPrimary(ctx context.Context, linkID, goalID uuid.UUID) error {
	link, err := s.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.GoalID == nil || *link.GoalID != goalID {
		return apperr.Validation("link %s is not linked to goal %s", linkID, goalID)
	}

	// Demote and promote inside one transaction so two concurrent
	// swaps on the same goal cannot leave two primaries or none; the
	// partial unique index on (goal_id) where is_primary backs this up
	// at the storage layer.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.linkRepo.DemotePrimaryForGoal(ctx, tx, goalID); err != nil {
			return fmt.Errorf("demote primary: %w", err)
		}
		if err := s.linkRepo.MarkPrimary(ctx, tx, linkID); err != nil {
			return fmt.Errorf("promote primary: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.PrimaryChanged(link.TenantID, goalID, linkID)
	s.log.Info("primary changed", "goal_id", goalID, "link_id", linkID)
	return nil
}

func (s *linkService) UpdateMetadata(ctx context.Context, linkID uuid.UUID, in UpdateLinkMetadataInput) (*types.MeasureLink, error) {
	link, err := s.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	if in.ThresholdPct != nil {
		if err := validateThreshold(in.ThresholdPct); err != nil {
			return nil, err
		}
		link.ThresholdPct = in.ThresholdPct
	}
	if in.Weight != nil {
		if err := validateWeight(in.Weight); err != nil {
			return nil, err
		}
		link.Weight = in.Weight
	}
	if in.DisplayOrder != nil {
		link.DisplayOrder = *in.DisplayOrder
	}
	if in.LinkType != nil {
		link.LinkType = *in.LinkType
	}
	if in.PersonID != nil {
		if *in.PersonID == uuid.Nil {
			return nil, apperr.Validation("person id required")
		}
		if s.lookup != nil {
			ok, err := s.lookup.PersonExists(ctx, link.TenantID, *in.PersonID)
			if err != nil {
				return nil, fmt.Errorf("person lookup: %w", err)
			}
			if !ok {
				return nil, apperr.NotFound("person %s not found", *in.PersonID)
			}
		}
		link.PersonID = *in.PersonID
	}

	if err := s.linkRepo.Save(ctx, nil, link); err != nil {
		return nil, fmt.Errorf("save link: %w", err)
	}
	s.notifier.LinkUpdated(link.TenantID, link)
	return link, nil
}

func validateThreshold(pct *float64) error {
	if pct == nil {
		return nil
	}
	if *pct < 0 || *pct > 100 {
		return apperr.Validation("threshold percentage must be between 0 and 100, got %v", *pct)
	}
	return nil
}

func validateWeight(w *float64) error {
	if w == nil {
		return nil
	}
	if *w < 0 || *w > 1 {
		return apperr.Validation("weight must be between 0.0 and 1.0, got %v", *w)
	}
	return nil
}
