package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/config"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue"
)

// EventTypeAttribute is the message attribute carrying the event subject.
const EventTypeAttribute = "EventType"

// Client represents an SQS client for the analytics event bus.
type Client struct {
	client *sqs.Client
	config envConfig.SQS
	log    *zap.Logger
}

// NewClient creates a new SQS client.
func NewClient(ctx context.Context, SQSConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(SQSConfig.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if SQSConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", SQSConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(SQSConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	sqsClient := sqs.NewFromConfig(cfg, clientOpts...)

	log.Info("SQS client created",
		zap.String("region", SQSConfig.Region),
		zap.String("queue_url", SQSConfig.QueueURL))

	return &Client{
		client: sqsClient,
		config: SQSConfig,
		log:    log,
	}, nil
}

// ReceiveMessages receives messages from SQS.
func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.client.ReceiveMessage(ctx, input)
}

// DeleteMessage deletes a message from SQS.
func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.client.DeleteMessage(ctx, input)
}

// QueueURL returns the configured source event queue URL.
func (c *Client) QueueURL() string {
	return c.config.QueueURL
}

// PublishEvent publishes a source domain event to the bus. The event type is
// carried as a message attribute so consumers can route without decoding the
// body.
func (c *Client) PublishEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("Failed to marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err))
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.config.QueueURL),
		MessageBody: aws.String(string(bodyJSON)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			EventTypeAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	})
	if err != nil {
		c.log.Error("Failed to send message to SQS",
			zap.String("event_type", eventType),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Info("Event published to SQS",
		zap.String("event_type", eventType))

	return nil
}

// PublishIngested publishes an ingested notification to the notification
// queue. A missing notification queue URL disables the feature.
func (c *Client) PublishIngested(ctx context.Context, note *queue.IngestedNotification) error {
	if c.config.NotifyQueueURL == "" {
		return nil
	}

	bodyJSON, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal ingested notification: %w", err)
	}

	_, err = c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.config.NotifyQueueURL),
		MessageBody: aws.String(string(bodyJSON)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			EventTypeAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String("analytics.ingested"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send ingested notification: %w", err)
	}

	return nil
}
