package consumer

import (
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
)

// EventNormalizer maps a raw bus message into a canonical analytics event.
// The returned correlation id may be empty. An error means the message can
// never become a valid row (missing tenant) and must be dropped, not retried.
type EventNormalizer interface {
	Normalize(eventType string, body []byte) (*domain.AnalyticsEvent, string, error)
}
