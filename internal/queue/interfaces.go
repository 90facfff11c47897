package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// IngestedNotification is the outbound "ingested" event emitted once per
// stored row. Best-effort; storage does not depend on it.
type IngestedNotification struct {
	TenantID      string `json:"tenantId"`
	EventID       string `json:"eventId"`
	EventType     string `json:"eventType"`
	EntityType    string `json:"entityType"`
	EntityID      string `json:"entityId,omitempty"`
	Channel       string `json:"channel"`
	Timestamp     string `json:"timestamp"` // ISO-8601
	CorrelationID string `json:"correlationId,omitempty"`
}

// QueuePublisher defines the interface for publishing events to the bus.
type QueuePublisher interface {
	// PublishEvent publishes a source domain event. The event type travels as
	// a message attribute; the payload is an arbitrary JSON object carrying
	// at least tenantId.
	PublishEvent(ctx context.Context, eventType string, payload map[string]interface{}) error

	// PublishIngested publishes an ingested notification.
	PublishIngested(ctx context.Context, note *IngestedNotification) error
}

// QueueConsumer defines the interface for consuming messages from the bus.
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
