package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Replan adjustment strategies.
const (
	ReplanMaintainFinalGoal = "maintain_final_goal"
	ReplanProportionalShift = "proportional_shift"
	ReplanCustom            = "custom"
)

// ReplanAdjustment is the audit record for one applied (or dismissed)
// replan: which actual triggered it, what the Expected series looked
// like before and after, and why.
type ReplanAdjustment struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LinkID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"link_id"`
	Strategy           string         `gorm:"column:strategy;not null" json:"strategy"`
	TriggeringActualID uuid.UUID      `gorm:"type:uuid;not null" json:"triggering_actual_id"`
	PreviousSeries     datatypes.JSON `gorm:"type:jsonb;column:previous_series" json:"previous_series"`
	NewSeries          datatypes.JSON `gorm:"type:jsonb;column:new_series" json:"new_series"`
	Reason             string         `gorm:"column:reason;not null;default:''" json:"reason"`
	AdjustedBy         uuid.UUID      `gorm:"type:uuid;not null" json:"adjusted_by"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
}

func (ReplanAdjustment) TableName() string { return "replan_adjustments" }

func (a *ReplanAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ValidReplanStrategy reports whether s is a known adjustment strategy.
func ValidReplanStrategy(s string) bool {
	return s == ReplanMaintainFinalGoal || s == ReplanProportionalShift || s == ReplanCustom
}
