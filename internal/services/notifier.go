package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/realtime"
	"github.com/stridehq/stride-backend/internal/realtime/bus"
	"github.com/stridehq/stride-backend/internal/types"
)

// PlanNotifier emits a domain event at the boundary of each mutating
// engine operation. Emission is best effort; a publish failure never
// fails the operation.
type PlanNotifier interface {
	LinkCreated(tenantID uuid.UUID, link *types.MeasureLink)
	LinkRemoved(tenantID, linkID uuid.UUID)
	LinkUpdated(tenantID uuid.UUID, link *types.MeasureLink)
	PrimaryChanged(tenantID, goalID, newPrimaryID uuid.UUID)
	TargetsUpserted(tenantID, linkID uuid.UUID, count int)
	ActualRecorded(tenantID, linkID, pointID uuid.UUID, variancePct *float64)
	ReplanFlagged(tenantID, linkID uuid.UUID)
	ReplanAdjusted(tenantID, linkID, adjustmentID uuid.UUID)
	ReplanDismissed(tenantID, linkID uuid.UUID)
}

type planNotifier struct {
	bus bus.Bus
}

func NewPlanNotifier(b bus.Bus) PlanNotifier {
	return &planNotifier{bus: b}
}

func (n *planNotifier) emit(tenantID uuid.UUID, eventType string, data map[string]interface{}) {
	if n == nil || n.bus == nil {
		return
	}
	_ = n.bus.Publish(context.Background(), realtime.Event{
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}

func (n *planNotifier) LinkCreated(tenantID uuid.UUID, link *types.MeasureLink) {
	if link == nil {
		return
	}
	n.emit(tenantID, realtime.EventLinkCreated, map[string]interface{}{
		"link_id":    link.ID,
		"measure_id": link.MeasureID,
		"person_id":  link.PersonID,
		"goal_id":    link.GoalID,
		"is_primary": link.IsPrimary,
	})
}

func (n *planNotifier) LinkRemoved(tenantID, linkID uuid.UUID) {
	n.emit(tenantID, realtime.EventLinkRemoved, map[string]interface{}{
		"link_id": linkID,
	})
}

func (n *planNotifier) LinkUpdated(tenantID uuid.UUID, link *types.MeasureLink) {
	if link == nil {
		return
	}
	n.emit(tenantID, realtime.EventLinkUpdated, map[string]interface{}{
		"link_id": link.ID,
	})
}

func (n *planNotifier) PrimaryChanged(tenantID, goalID, newPrimaryID uuid.UUID) {
	n.emit(tenantID, realtime.EventLinkPrimaryChanged, map[string]interface{}{
		"goal_id":     goalID,
		"new_primary": newPrimaryID,
	})
}

func (n *planNotifier) TargetsUpserted(tenantID, linkID uuid.UUID, count int) {
	n.emit(tenantID, realtime.EventTargetUpserted, map[string]interface{}{
		"link_id": linkID,
		"count":   count,
	})
}

func (n *planNotifier) ActualRecorded(tenantID, linkID, pointID uuid.UUID, variancePct *float64) {
	n.emit(tenantID, realtime.EventActualRecorded, map[string]interface{}{
		"link_id":      linkID,
		"point_id":     pointID,
		"variance_pct": variancePct,
	})
}

func (n *planNotifier) ReplanFlagged(tenantID, linkID uuid.UUID) {
	n.emit(tenantID, realtime.EventReplanFlagged, map[string]interface{}{
		"link_id": linkID,
	})
}

func (n *planNotifier) ReplanAdjusted(tenantID, linkID, adjustmentID uuid.UUID) {
	n.emit(tenantID, realtime.EventReplanAdjusted, map[string]interface{}{
		"link_id":       linkID,
		"adjustment_id": adjustmentID,
	})
}

func (n *planNotifier) ReplanDismissed(tenantID, linkID uuid.UUID) {
	n.emit(tenantID, realtime.EventReplanDismissed, map[string]interface{}{
		"link_id": linkID,
	})
}
