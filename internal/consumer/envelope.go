package consumer

import (
	"context"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
)

// Envelope wraps a normalized analytics event with acknowledgment callbacks.
// The correlation id, when the source supplied one, rides along for the
// outbound ingested notification.
type Envelope struct {
	Event         *domain.AnalyticsEvent
	CorrelationID string
	ack           func(context.Context) error
	nack          func(context.Context) error
}

// NewEnvelope creates a new message envelope.
func NewEnvelope(event *domain.AnalyticsEvent, correlationID string, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event:         event,
		CorrelationID: correlationID,
		ack:           ack,
		nack:          nack,
	}
}

// Ack acknowledges successful processing.
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing.
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
