package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classcast/classcast/internal/hub"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

// Bridge subscribes to the event bus and fans incoming events into the
// local websocket hub. It is what makes a horizontally scaled deployment
// coherent: any instance's publish reaches every instance's viewers.
type Bridge struct {
	bus    pubsub.Subscriber
	hub    *hub.Hub
	doneCh chan struct{}
}

// New creates a bridge between the event bus and the local hub.
func New(bus pubsub.Subscriber, h *hub.Hub) *Bridge {
	return &Bridge{
		bus:    bus,
		hub:    h,
		doneCh: make(chan struct{}),
	}
}

// Done returns a channel that is closed when Run() exits.
func (b *Bridge) Done() <-chan struct{} { return b.doneCh }

// Run subscribes to both session streams and forwards events until ctx is
// done. Reconnects on receive errors.
func (b *Bridge) Run(ctx context.Context) {
	defer close(b.doneCh)
	l := log.L()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := b.runSubscription(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("event bridge subscription error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return
		}
	}
}

func (b *Bridge) runSubscription(ctx context.Context) error {
	events, err := b.bus.SubscribePattern(ctx, "class:session:*:events")
	if err != nil {
		return err
	}
	presence, err := b.bus.SubscribePattern(ctx, "class:session:*:presence")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			b.forward(event)
		case event, ok := <-presence:
			if !ok {
				return nil
			}
			b.forward(event)
		}
	}
}

// forward wraps the bus event into a client frame and hands it to the hub.
// Sessions nobody here is watching are skipped without marshalling.
func (b *Bridge) forward(event *pubsub.Event) {
	if event.SessionID == "" || !b.hub.HasSession(event.SessionID) {
		return
	}

	frame, err := json.Marshal(event)
	if err != nil {
		return
	}

	b.hub.Broadcast(&hub.SessionMessage{
		SessionID: event.SessionID,
		Message:   frame,
	})
}
