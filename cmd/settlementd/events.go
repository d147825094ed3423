package main

import (
	"log/slog"

	"optimex/core/events"
	"optimex/core/types"
)

// eventLogger writes committed events to the service log for indexers that
// tail it.
type eventLogger struct {
	logger *slog.Logger
}

func (l eventLogger) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	attrs := []any{"type", evt.EventType()}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok {
		attrs = append(attrs, "attributes", typed.Event().Attributes)
	}
	l.logger.Info("event", attrs...)
}
