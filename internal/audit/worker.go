package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher's queue into the stream sink. It keeps broker
// I/O off request paths; a sink failure is logged and the event is dropped
// from the stream, never retried into a blocked queue.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.Error("audit stream publish failed",
					"action", event.Action,
					"identity_id", event.IdentityID,
					"error", err)
			}
		}
	}
}
