package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Interpolation methods for the Expected target line.
const (
	InterpolationLinear      = "linear"
	InterpolationStep        = "step"
	InterpolationExponential = "exponential"
)

// Direction controls how a variance is classified, never how it is
// computed. "up" means a positive variance is favorable.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Replan states per link.
const (
	ReplanStateNormal    = "normal"
	ReplanStateFlagged   = "flagged"
	ReplanStateDismissed = "dismissed"
)

// MeasureLink associates a Measure with the Person responsible for it
// and an optional Goal/Strategy context. Goal-level uniqueness
// (measure_id, goal_id when strategy_id is null), strategy-level
// uniqueness (measure_id, strategy_id) and the one-primary-per-goal
// rule are enforced by partial unique indexes so concurrent
// check-then-insert races cannot produce duplicates.
type MeasureLink struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	MeasureID  uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_measure_goal_link,where:strategy_id IS NULL AND deleted_at IS NULL;uniqueIndex:idx_measure_strategy_link,where:deleted_at IS NULL" json:"measure_id"`
	PersonID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"person_id"`
	GoalID     *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_measure_goal_link,where:strategy_id IS NULL AND deleted_at IS NULL;uniqueIndex:idx_goal_primary_link,where:is_primary AND deleted_at IS NULL" json:"goal_id,omitempty"`
	StrategyID *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_measure_strategy_link,where:deleted_at IS NULL" json:"strategy_id,omitempty"`

	ThresholdPct *float64 `gorm:"column:threshold_pct" json:"threshold_pct,omitempty"`
	LinkType     string   `gorm:"column:link_type;not null;default:''" json:"link_type"`
	Weight       *float64 `gorm:"column:weight" json:"weight,omitempty"`
	DisplayOrder int      `gorm:"column:display_order;not null;default:0" json:"display_order"`
	IsPrimary    bool     `gorm:"column:is_primary;not null;default:false" json:"is_primary"`

	InterpolationMethod string `gorm:"column:interpolation_method;not null;default:'linear'" json:"interpolation_method"`
	Direction           string `gorm:"column:direction;not null;default:'up'" json:"direction"`

	ReplanState         string `gorm:"column:replan_state;not null;default:'normal'" json:"replan_state"`
	ReplanRequiredCount int    `gorm:"column:replan_required_count;not null;default:2" json:"replan_required_count"`
	ConsecutiveBreaches int    `gorm:"column:consecutive_breaches;not null;default:0" json:"consecutive_breaches"`

	LinkedAt  time.Time      `gorm:"column:linked_at;not null" json:"linked_at"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MeasureLink) TableName() string { return "measure_links" }

func (l *MeasureLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.LinkedAt.IsZero() {
		l.LinkedAt = time.Now().UTC()
	}
	return nil
}

// GoalLevel reports whether the link is scoped to a goal directly
// (no strategy nesting).
func (l *MeasureLink) GoalLevel() bool {
	return l.GoalID != nil && l.StrategyID == nil
}

// StrategyLevel reports whether the link is nested under a strategy.
func (l *MeasureLink) StrategyLevel() bool {
	return l.StrategyID != nil
}

// PersonalOnly reports whether the link lives on a personal scorecard
// with no goal context.
func (l *MeasureLink) PersonalOnly() bool {
	return l.GoalID == nil && l.StrategyID == nil
}
