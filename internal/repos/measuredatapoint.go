package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/types"
)

// SeriesQuery selects an ordered slice of one link's data points.
// Category is required; subtype and the date range are optional.
type SeriesQuery struct {
	LinkID   uuid.UUID
	Category string
	Subtype  string
	From     *time.Time
	To       *time.Time
}

type MeasureDataPointRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.MeasureDataPoint) (*types.MeasureDataPoint, error)
	CreateMany(ctx context.Context, tx *gorm.DB, rows []*types.MeasureDataPoint) ([]*types.MeasureDataPoint, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MeasureDataPoint, error)
	ListSeries(ctx context.Context, tx *gorm.DB, q SeriesQuery) ([]*types.MeasureDataPoint, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.MeasureDataPoint) error
}

type measureDataPointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasureDataPointRepo(db *gorm.DB, baseLog *logger.Logger) MeasureDataPointRepo {
	repoLog := baseLog.With("repo", "MeasureDataPointRepo")
	return &measureDataPointRepo{db: db, log: repoLog}
}

func (r *measureDataPointRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MeasureDataPoint) (*types.MeasureDataPoint, error) {
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

func (r *measureDataPointRepo) CreateMany(ctx context.Context, tx *gorm.DB, rows []*types.MeasureDataPoint) ([]*types.MeasureDataPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.MeasureDataPoint{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *measureDataPointRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MeasureDataPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var row types.MeasureDataPoint
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *measureDataPointRepo) ListSeries(ctx context.Context, tx *gorm.DB, q SeriesQuery) ([]*types.MeasureDataPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureDataPoint
	if q.LinkID == uuid.Nil {
		return results, nil
	}

	query := transaction.WithContext(ctx).
		Where("link_id = ?", q.LinkID)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Subtype != "" {
		query = query.Where("subtype = ?", q.Subtype)
	}
	if q.From != nil {
		query = query.Where("effective_date >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("effective_date <= ?", *q.To)
	}

	if err := query.Order("effective_date ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measureDataPointRepo) Save(ctx context.Context, tx *gorm.DB, row *types.MeasureDataPoint) error {
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
