package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/types"
)

type ReplanAdjustmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ReplanAdjustment) (*types.ReplanAdjustment, error)
	ListByLinkID(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) ([]*types.ReplanAdjustment, error)
}

type replanAdjustmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReplanAdjustmentRepo(db *gorm.DB, baseLog *logger.Logger) ReplanAdjustmentRepo {
	repoLog := baseLog.With("repo", "ReplanAdjustmentRepo")
	return &replanAdjustmentRepo{db: db, log: repoLog}
}

func (r *replanAdjustmentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ReplanAdjustment) (*types.ReplanAdjustment, error) {
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

func (r *replanAdjustmentRepo) ListByLinkID(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) ([]*types.ReplanAdjustment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReplanAdjustment
	if linkID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
