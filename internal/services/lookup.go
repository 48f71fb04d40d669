package services

import (
	"context"

	"github.com/google/uuid"
)

// RefLookup answers existence checks for the external entities a link
// references. The goal/strategy/measure/person records themselves are
// owned by the CRUD layer; the engine only ever needs to know whether
// an id is real.
type RefLookup interface {
	MeasureExists(ctx context.Context, tenantID, measureID uuid.UUID) (bool, error)
	PersonExists(ctx context.Context, tenantID, personID uuid.UUID) (bool, error)
	GoalExists(ctx context.Context, tenantID, goalID uuid.UUID) (bool, error)
	StrategyExists(ctx context.Context, tenantID, strategyID uuid.UUID) (bool, error)
}

type allowAllLookup struct{}

// NewAllowAllLookup returns a RefLookup that accepts any non-nil id.
// Used when the engine runs without a CRUD-layer connection; the nil
// check still rejects structurally absent references.
func NewAllowAllLookup() RefLookup { return allowAllLookup{} }

func (allowAllLookup) MeasureExists(ctx context.Context, tenantID, measureID uuid.UUID) (bool, error) {
	return measureID != uuid.Nil, nil
}

func (allowAllLookup) PersonExists(ctx context.Context, tenantID, personID uuid.UUID) (bool, error) {
	return personID != uuid.Nil, nil
}

func (allowAllLookup) GoalExists(ctx context.Context, tenantID, goalID uuid.UUID) (bool, error) {
	return goalID != uuid.Nil, nil
}

func (allowAllLookup) StrategyExists(ctx context.Context, tenantID, strategyID uuid.UUID) (bool, error) {
	return strategyID != uuid.Nil, nil
}
