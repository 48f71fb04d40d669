package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Domain event types emitted at the boundary of each mutating engine
// operation.
const (
	EventLinkCreated        = "link.created"
	EventLinkRemoved        = "link.removed"
	EventLinkUpdated        = "link.updated"
	EventLinkPrimaryChanged = "link.primary_changed"
	EventTargetUpserted     = "target.batch_upserted"
	EventActualRecorded     = "actual.recorded"
	EventReplanFlagged      = "replan.flagged"
	EventReplanAdjusted     = "replan.adjusted"
	EventReplanDismissed    = "replan.dismissed"
)

// Event is the wire shape published to the bus. Data carries the ids
// and numbers a subscriber needs; full records stay in the store.
type Event struct {
	Type       string                 `json:"type"`
	TenantID   uuid.UUID              `json:"tenant_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}
