package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/analytics"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
)

// BusEventNormalizer implements EventNormalizer over the pure normalizer.
// Normalization itself is total; the only rejection is a missing tenant id,
// which the bus contract guarantees and without which a row has no partition
// key.
type BusEventNormalizer struct{}

// NewBusEventNormalizer creates a new bus event normalizer.
func NewBusEventNormalizer() *BusEventNormalizer {
	return &BusEventNormalizer{}
}

// Normalize decodes the message body and maps it to a canonical row. The
// event type usually arrives as a message attribute; when absent it falls
// back to an eventType field inside the body.
func (n *BusEventNormalizer) Normalize(eventType string, body []byte) (*domain.AnalyticsEvent, string, error) {
	payload := analytics.DecodePayload(body)

	if eventType == "" {
		eventType = eventTypeFromBody(body)
	}
	if eventType == "" {
		return nil, "", fmt.Errorf("message carries no event type")
	}
	if payload.TenantID == "" {
		return nil, "", fmt.Errorf("message carries no tenantId")
	}

	return analytics.Normalize(eventType, payload), payload.CorrelationID, nil
}

func eventTypeFromBody(body []byte) string {
	var probe struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.EventType
}
