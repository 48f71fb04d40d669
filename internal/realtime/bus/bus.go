package bus

import (
	"context"

	"github.com/stridehq/stride-backend/internal/realtime"
)

// Bus carries domain events out of the engine. Publishing is
// fire-and-forget from the engine's point of view; a failed publish
// never rolls back the operation that produced it.
type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error
}

type noopBus struct{}

// NewNoopBus returns a bus that drops every event. Used when no
// REDIS_ADDR is configured.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(ctx context.Context, ev realtime.Event) error { return nil }

func (noopBus) StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error {
	return nil
}
