package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/types"
)

// LinkFilter narrows List queries. Nil fields are ignored;
// PersonalOnly restricts to links with no goal context.
type LinkFilter struct {
	MeasureID    *uuid.UUID
	GoalID       *uuid.UUID
	StrategyID   *uuid.UUID
	PersonID     *uuid.UUID
	PersonalOnly bool
}

type MeasureLinkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.MeasureLink) (*types.MeasureLink, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MeasureLink, error)
	List(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, filter LinkFilter) ([]*types.MeasureLink, error)
	ListByGoalID(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.MeasureLink, error)
	ListByMeasureID(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]*types.MeasureLink, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.MeasureLink) error
	DemotePrimaryForGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error
	MarkPrimary(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type measureLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasureLinkRepo(db *gorm.DB, baseLog *logger.Logger) MeasureLinkRepo {
	repoLog := baseLog.With("repo", "MeasureLinkRepo")
	return &measureLinkRepo{db: db, log: repoLog}
}

func (r *measureLinkRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MeasureLink) (*types.MeasureLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *measureLinkRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MeasureLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var row types.MeasureLink
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *measureLinkRepo) List(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, filter LinkFilter) ([]*types.MeasureLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Model(&types.MeasureLink{})
	if tenantID != uuid.Nil {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if filter.MeasureID != nil {
		q = q.Where("measure_id = ?", *filter.MeasureID)
	}
	if filter.GoalID != nil {
		q = q.Where("goal_id = ?", *filter.GoalID)
	}
	if filter.StrategyID != nil {
		q = q.Where("strategy_id = ?", *filter.StrategyID)
	}
	if filter.PersonID != nil {
		q = q.Where("person_id = ?", *filter.PersonID)
	}
	if filter.PersonalOnly {
		q = q.Where("goal_id IS NULL AND strategy_id IS NULL")
	}

	var results []*types.MeasureLink
	if err := q.Order("display_order ASC, linked_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measureLinkRepo) ListByGoalID(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.MeasureLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureLink
	if goalID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("display_order ASC, linked_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measureLinkRepo) ListByMeasureID(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]*types.MeasureLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureLink
	if measureID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("measure_id = ?", measureID).
		Order("linked_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measureLinkRepo) Save(ctx context.Context, tx *gorm.DB, row *types.MeasureLink) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil || row.ID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *measureLinkRepo) DemotePrimaryForGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if goalID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.MeasureLink{}).
		Where("goal_id = ? AND is_primary = ?", goalID, true).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return nil
}

func (r *measureLinkRepo) MarkPrimary(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if linkID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.MeasureLink{}).
		Where("id = ?", linkID).
		Update("is_primary", true).Error; err != nil {
		return err
	}
	return nil
}

func (r *measureLinkRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.MeasureLink{}).Error; err != nil {
		return err
	}
	return nil
}
