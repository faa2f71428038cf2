package sync

import (
	"context"
	"log"

	"minitask-backend/pkg/sse"
)

// Forwarder pushes bus events out to connected mini app clients over
// SSE. It is the only bridge between the change bus and browsers; the
// task core never talks to connections directly.
type Forwarder struct {
	bus *PubSubBus
	sse *sse.Manager
}

func NewForwarder(bus *PubSubBus, sseManager *sse.Manager) *Forwarder {
	return &Forwarder{bus: bus, sse: sseManager}
}

// Run subscribes to the bus and broadcasts every event. Blocks until
// the context is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	err := f.bus.Listen(ctx, func(event Event) {
		f.sse.Broadcast(event.Kind, event)
	})
	if err != nil && ctx.Err() == nil {
		log.Printf("[Sync] Event forwarder stopped: %v", err)
	}
}
