package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink delivers events to an external stream. Delivery is best-effort from
// the caller's point of view; the store remains the source of truth.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Publisher captures structured audit events. Events are persisted
// synchronously and handed to the background worker for stream delivery so
// request paths never block on the broker.
type Publisher struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		store:  store,
		inbox:  make(chan Event, 256),
		logger: logger,
	}
}

// Emit records one event. The store append is synchronous; the stream
// delivery is queued. A full queue drops the stream copy with a warning
// rather than stalling the caller, the persisted copy is not affected.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit stream queue full, event not streamed",
			"action", event.Action, "identity_id", event.IdentityID)
	}
	return nil
}

// List returns the recorded trail for one identity.
func (p *Publisher) List(ctx context.Context, identityID string) ([]Event, error) {
	return p.store.ListByIdentity(ctx, identityID)
}

// Inbox exposes the stream queue for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
