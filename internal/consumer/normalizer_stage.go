package consumer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue"
	sqsqueue "github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue/sqs"
)

// NormalizerStage turns raw bus messages into canonical event envelopes.
// Messages that can never become a valid row are deleted from the queue so
// they do not redeliver forever.
type NormalizerStage struct {
	consumer   queue.QueueConsumer
	normalizer EventNormalizer
	log        *zap.Logger
}

// NewNormalizerStage creates a new normalizer stage.
func NewNormalizerStage(consumer queue.QueueConsumer, normalizer EventNormalizer, log *zap.Logger) *NormalizerStage {
	return &NormalizerStage{
		consumer:   consumer,
		normalizer: normalizer,
		log:        log,
	}
}

// Start consumes raw messages and outputs envelopes.
func (s *NormalizerStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Normalizer stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				s.log.Info("Normalizer stage input channel closed")
				return
			}

			envelope := s.normalizeMessage(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
			}
		}
	}
}

// normalizeMessage maps a single bus message to an envelope.
func (s *NormalizerStage) normalizeMessage(ctx context.Context, msg types.Message) *Envelope {
	eventType := ""
	if attr, ok := msg.MessageAttributes[sqsqueue.EventTypeAttribute]; ok {
		eventType = aws.ToString(attr.StringValue)
	}

	body := []byte(aws.ToString(msg.Body))
	event, correlationID, err := s.normalizer.Normalize(eventType, body)
	if err != nil {
		s.log.Warn("Dropping unprocessable message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.String("event_type", eventType),
			zap.Error(err))
		if err := s.deleteMessage(ctx, msg); err != nil {
			s.log.Error("Failed to delete unprocessable message",
				zap.String("message_id", aws.ToString(msg.MessageId)),
				zap.Error(err))
		}
		return nil
	}

	ack := func(ctx context.Context) error {
		return s.deleteMessage(ctx, msg)
	}

	nack := func(ctx context.Context) error {
		// The message becomes visible again after its visibility timeout.
		return nil
	}

	return NewEnvelope(event, correlationID, ack, nack)
}

// deleteMessage deletes a message from the queue.
func (s *NormalizerStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := s.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		s.log.Error("Failed to delete message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return err
	}
	return nil
}
