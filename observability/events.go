package observability

import (
	"optimex/core/events"
	"optimex/crypto"
)

// EventRecorder counts published events and fee volume. Register it with the
// node as an event subscriber.
type EventRecorder struct {
	metrics *SettlementMetricsRegistry
}

// NewEventRecorder returns a recorder backed by the settlement registry.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{metrics: SettlementMetrics()}
}

// Emit implements events.Emitter.
func (r *EventRecorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	r.metrics.RecordEvent(evt.EventType())
	switch e := evt.(type) {
	case events.TradeSettled:
		r.metrics.RecordFee(assetLabel(e.Token), e.TotalFee)
	case events.PaymentTransferred:
		r.metrics.RecordFee(assetLabel(e.Token), e.TotalFee)
	}
}

func assetLabel(token *crypto.PublicKey) string {
	if token == nil {
		return events.NativeAsset
	}
	return token.String()
}
