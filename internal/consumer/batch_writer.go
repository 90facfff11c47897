package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/repository"
)

// BatchWriterConfig configures the batch writer.
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter batches envelopes and writes them to the event store. After a
// successful insert it acknowledges the batch and emits best-effort ingested
// notifications onto the bus. A failed insert nacks the batch; at-least-once
// redelivery then produces fresh rows with fresh ids, which is the designed
// duplicate-tolerant behavior.
type BatchWriter struct {
	repository repository.AnalyticsRepository
	notifier   queue.QueuePublisher
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer. notifier may be nil to disable
// ingested notifications.
func NewBatchWriter(repo repository.AnalyticsRepository, notifier queue.QueuePublisher, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		repository: repo,
		notifier:   notifier,
		config:     config,
		log:        log,
	}
}

// Start begins processing envelopes, batching, and writing to the store.
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			if len(batch) > 0 {
				w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
				w.processBatch(ctx, batch)
			}
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				if len(batch) > 0 {
					w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
					w.processBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Info("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Info("Batch timeout reached", zap.Int("envelope_count", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// processBatch inserts the batch, then acks or nacks every envelope.
func (w *BatchWriter) processBatch(ctx context.Context, envelopes []*Envelope) {
	if len(envelopes) == 0 {
		return
	}

	events := make([]*domain.AnalyticsEvent, len(envelopes))
	for i, env := range envelopes {
		events[i] = env.Event
	}

	insertedCount, err := w.repository.InsertBatch(ctx, events)

	if err != nil {
		w.log.Error("Failed to insert batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	if insertedCount != len(events) {
		w.log.Warn("Partial insert success",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	w.log.Info("Successfully inserted events",
		zap.Int("count", insertedCount))
	w.ackAll(ctx, envelopes)
	w.notifyIngested(ctx, envelopes)
}

// ackAll acknowledges all envelopes (deletes from the queue).
func (w *BatchWriter) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			w.log.Error("Failed to ack envelope", zap.Error(err))
		}
	}
}

// nackAll negatively acknowledges all envelopes (leaves them for redelivery).
func (w *BatchWriter) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			w.log.Error("Failed to nack envelope", zap.Error(err))
		}
	}
}

// notifyIngested emits one ingested notification per stored row. Publish
// failures are logged and swallowed; storage already succeeded.
func (w *BatchWriter) notifyIngested(ctx context.Context, envelopes []*Envelope) {
	if w.notifier == nil {
		return
	}

	for _, env := range envelopes {
		event := env.Event
		note := &queue.IngestedNotification{
			TenantID:      event.TenantID,
			EventID:       event.ID,
			EventType:     event.EventType,
			EntityType:    string(event.EntityType),
			EntityID:      event.EntityID,
			Channel:       string(event.Channel),
			Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
			CorrelationID: env.CorrelationID,
		}
		if err := w.notifier.PublishIngested(ctx, note); err != nil {
			w.log.Warn("Failed to publish ingested notification",
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
}
