package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/config"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/repository"
)

// Consumer orchestrates the ingestion pipeline: receive, normalize, batch
// write. Delivery is at-least-once with no ordering guarantee; duplicates
// become duplicate rows by design.
type Consumer struct {
	receiver    *Receiver
	normalizer  *NormalizerStage
	batchWriter *BatchWriter
}

// NewConsumer creates a new consumer with a pipeline architecture.
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, notifier queue.QueuePublisher, repo repository.AnalyticsRepository, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}, log)

	normalizer := NewNormalizerStage(queueConsumer, NewBusEventNormalizer(), log)

	batchWriter := NewBatchWriter(repo, notifier, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)

	return &Consumer{
		receiver:    receiver,
		normalizer:  normalizer,
		batchWriter: batchWriter,
	}
}

// Start begins the consumer pipeline.
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup

	wg.Add(3)

	// Stage 1: Receive messages from the bus
	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Normalize messages into envelopes
	go func() {
		defer wg.Done()
		c.normalizer.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3: Batch and write to the event store
	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
