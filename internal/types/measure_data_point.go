package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/apperr"
)

// Data point categories. Category is fixed at creation; nothing may
// turn a Target into an Actual or back.
const (
	CategoryTarget = "target"
	CategoryActual = "actual"
)

// Target subtypes. Only the Expected line drives interpolation;
// Optimal and Minimal are comparison lines.
const (
	SubtypeExpected = "expected"
	SubtypeOptimal  = "optimal"
	SubtypeMinimal  = "minimal"
)

// Actual subtypes. When both exist for a date, Measured wins.
const (
	SubtypeEstimate = "estimate"
	SubtypeMeasured = "measured"
)

// MeasureDataPoint is a single planned or recorded value attached to a
// MeasureLink. One row type backs both categories; the category-gated
// constructors below are the only way services build one, so a
// confidence on an Actual or an override comment on a Target cannot
// occur.
type MeasureDataPoint struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LinkID uuid.UUID `gorm:"type:uuid;not null;index:idx_link_date;uniqueIndex:idx_link_series_date" json:"link_id"`

	Category string `gorm:"column:category;not null;uniqueIndex:idx_link_series_date" json:"category"`
	Subtype  string `gorm:"column:subtype;not null;uniqueIndex:idx_link_series_date" json:"subtype"`

	Value         float64    `gorm:"column:value;not null" json:"value"`
	EffectiveDate time.Time  `gorm:"column:effective_date;not null;index:idx_link_date;uniqueIndex:idx_link_series_date" json:"effective_date"`
	PeriodStart   *time.Time `gorm:"column:period_start" json:"period_start,omitempty"`
	Label         string     `gorm:"column:label;not null;default:''" json:"label"`

	// Target-only planning fields.
	Confidence *int   `gorm:"column:confidence" json:"confidence,omitempty"`
	Rationale  string `gorm:"column:rationale;not null;default:''" json:"rationale,omitempty"`

	// Actual-only measurement fields.
	Source          string   `gorm:"column:source;not null;default:''" json:"source,omitempty"`
	OriginalValue   *float64 `gorm:"column:original_value" json:"original_value,omitempty"`
	ManualOverride  bool     `gorm:"column:manual_override;not null;default:false" json:"manual_override"`
	OverrideComment string   `gorm:"column:override_comment;not null;default:''" json:"override_comment,omitempty"`
	ReplanTriggered bool     `gorm:"column:replan_triggered;not null;default:false" json:"replan_triggered"`

	RecordedBy uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (MeasureDataPoint) TableName() string { return "measure_data_points" }

func (p *MeasureDataPoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}
	return nil
}

func (p *MeasureDataPoint) IsTarget() bool { return p.Category == CategoryTarget }
func (p *MeasureDataPoint) IsActual() bool { return p.Category == CategoryActual }

// ValidTargetSubtype reports whether s belongs to the Target category.
func ValidTargetSubtype(s string) bool {
	return s == SubtypeExpected || s == SubtypeOptimal || s == SubtypeMinimal
}

// ValidActualSubtype reports whether s belongs to the Actual category.
func ValidActualSubtype(s string) bool {
	return s == SubtypeEstimate || s == SubtypeMeasured
}

// NewTargetPoint builds a Target data point. Confidence, when set,
// must be in [1,5].
func NewTargetPoint(linkID uuid.UUID, subtype string, value float64, effectiveDate time.Time, label, rationale string, confidence *int, recordedBy uuid.UUID) (*MeasureDataPoint, error) {
	if linkID == uuid.Nil {
		return nil, apperr.Validation("link id required")
	}
	if !ValidTargetSubtype(subtype) {
		return nil, apperr.Validation("invalid target subtype %q", subtype)
	}
	if effectiveDate.IsZero() {
		return nil, apperr.Validation("effective date required")
	}
	if confidence != nil && (*confidence < 1 || *confidence > 5) {
		return nil, apperr.Validation("confidence must be between 1 and 5, got %d", *confidence)
	}
	return &MeasureDataPoint{
		LinkID:        linkID,
		Category:      CategoryTarget,
		Subtype:       subtype,
		Value:         value,
		EffectiveDate: effectiveDate.UTC(),
		Label:         label,
		Rationale:     rationale,
		Confidence:    confidence,
		RecordedBy:    recordedBy,
	}, nil
}

// NewActualPoint builds an Actual data point.
func NewActualPoint(linkID uuid.UUID, subtype string, value float64, effectiveDate time.Time, label, source string, periodStart *time.Time, recordedBy uuid.UUID) (*MeasureDataPoint, error) {
	if linkID == uuid.Nil {
		return nil, apperr.Validation("link id required")
	}
	if !ValidActualSubtype(subtype) {
		return nil, apperr.Validation("invalid actual subtype %q", subtype)
	}
	if effectiveDate.IsZero() {
		return nil, apperr.Validation("effective date required")
	}
	if periodStart != nil && periodStart.After(effectiveDate) {
		return nil, apperr.Validation("period start must not be after effective date")
	}
	return &MeasureDataPoint{
		LinkID:        linkID,
		Category:      CategoryActual,
		Subtype:       subtype,
		Value:         value,
		EffectiveDate: effectiveDate.UTC(),
		PeriodStart:   periodStart,
		Label:         label,
		Source:        source,
		RecordedBy:    recordedBy,
	}, nil
}
