package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/dto"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue"
)

// EventService publishes source domain events onto the bus. Publication is
// fire-and-forget: a bus failure is logged and never propagated to the
// business operation that produced the event.
type EventService struct {
	publisher queue.QueuePublisher
	log       *zap.Logger
}

// NewEventService creates a new event publication service.
func NewEventService(publisher queue.QueuePublisher, log *zap.Logger) *EventService {
	return &EventService{
		publisher: publisher,
		log:       log,
	}
}

// Publish validates and publishes a single source event. Only validation
// failures are returned; publish failures are swallowed.
func (s *EventService) Publish(ctx context.Context, event *dto.PublishEventRequest) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	if err := s.publisher.PublishEvent(ctx, event.EventType, event.Payload); err != nil {
		s.log.Warn("Failed to publish event, continuing",
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}

	return nil
}

// PublishBulk validates and publishes multiple events, collecting per-event
// validation errors.
func (s *EventService) PublishBulk(ctx context.Context, events []dto.PublishEventRequest) (int, []string) {
	accepted := 0
	var errors []string

	for i, event := range events {
		if err := s.Publish(ctx, &event); err != nil {
			errors = append(errors, fmt.Sprintf("event %d: %v", i, err))
			s.log.Warn("Rejected event in bulk publish",
				zap.Int("index", i),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			continue
		}
		accepted++
	}

	return accepted, errors
}

// validateEvent enforces the bus contract: an event type and a payload
// carrying at least a tenantId.
func validateEvent(event *dto.PublishEventRequest) error {
	if event.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	tenantID, _ := event.Payload["tenantId"].(string)
	if tenantID == "" {
		return fmt.Errorf("payload must carry a non-empty tenantId")
	}
	return nil
}
