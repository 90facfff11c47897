package consumer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/repository"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/timerange"
)

// MockAnalyticsRepository is a mock implementation of repository.AnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockAnalyticsRepository) CountByEventType(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string) []repository.AggregatedCount {
	args := m.Called(ctx, tenantID, tr, eventTypes)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]repository.AggregatedCount)
}

func (m *MockAnalyticsRepository) CountByEntityType(ctx context.Context, tenantID string, tr timerange.TimeRange) []repository.AggregatedCount {
	args := m.Called(ctx, tenantID, tr)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]repository.AggregatedCount)
}

func (m *MockAnalyticsRepository) CountByChannel(ctx context.Context, tenantID string, tr timerange.TimeRange, entityType domain.EntityType) []repository.AggregatedCount {
	args := m.Called(ctx, tenantID, tr, entityType)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]repository.AggregatedCount)
}

func (m *MockAnalyticsRepository) CountByTimeBucket(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string) []repository.TimeBucketCount {
	args := m.Called(ctx, tenantID, tr, eventTypes)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]repository.TimeBucketCount)
}

func (m *MockAnalyticsRepository) CountByTimeBucketAndDimension(ctx context.Context, tenantID string, tr timerange.TimeRange, dimension string, eventTypes []string, entityType domain.EntityType) []repository.TimeBucketDimensionCount {
	args := m.Called(ctx, tenantID, tr, dimension, eventTypes, entityType)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]repository.TimeBucketDimensionCount)
}

func (m *MockAnalyticsRepository) TotalCount(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string, entityType domain.EntityType) uint64 {
	args := m.Called(ctx, tenantID, tr, eventTypes, entityType)
	return args.Get(0).(uint64)
}

func (m *MockAnalyticsRepository) CountByMetadataField(ctx context.Context, tenantID string, tr timerange.TimeRange, field string, eventTypes []string) []repository.AggregatedCount {
	args := m.Called(ctx, tenantID, tr, field, eventTypes)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]repository.AggregatedCount)
}

func (m *MockAnalyticsRepository) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAnalyticsRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockQueuePublisher is a mock implementation of queue.QueuePublisher
type MockQueuePublisher struct {
	mock.Mock
}

func (m *MockQueuePublisher) PublishEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func (m *MockQueuePublisher) PublishIngested(ctx context.Context, note *queue.IngestedNotification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func createTestEnvelope(id string, acked, nacked *atomic.Int32) *Envelope {
	event := &domain.AnalyticsEvent{
		ID:         id,
		TenantID:   "tenant-1",
		Timestamp:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		EventType:  domain.EventContactCreated,
		EntityType: domain.EntityContact,
		EntityID:   "c-" + id,
		Channel:    domain.ChannelUnknown,
		Metadata:   "{}",
	}

	ack := func(ctx context.Context) error {
		if acked != nil {
			acked.Add(1)
		}
		return nil
	}

	nack := func(ctx context.Context) error {
		if nacked != nil {
			nacked.Add(1)
		}
		return nil
	}

	return NewEnvelope(event, "corr-"+id, ack, nack)
}

func TestBatchWriter_Start_BatchSizeThreshold(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 3,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, nil, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 3
	})).Return(3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", nil, nil)
	in <- createTestEnvelope("2", nil, nil)
	in <- createTestEnvelope("3", nil, nil)

	time.Sleep(100 * time.Millisecond)

	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_Start_TimeoutFlush(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 10,
		FlushTimeout: 50 * time.Millisecond,
	}

	writer := NewBatchWriter(mockRepo, nil, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 2
	})).Return(2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", nil, nil)
	in <- createTestEnvelope("2", nil, nil)

	time.Sleep(100 * time.Millisecond)

	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_Start_SuccessAcksAndNotifies(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	mockNotifier := new(MockQueuePublisher)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 2,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, mockNotifier, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.Anything).Return(2, nil)
	mockNotifier.On("PublishIngested", mock.Anything, mock.MatchedBy(func(note *queue.IngestedNotification) bool {
		return note.TenantID == "tenant-1" && note.EventType == domain.EventContactCreated
	})).Return(nil).Times(2)

	var acked, nacked atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", &acked, &nacked)
	in <- createTestEnvelope("2", &acked, &nacked)

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(2), acked.Load())
	assert.Equal(t, int32(0), nacked.Load())
	mockRepo.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestBatchWriter_Start_NotificationCarriesRowIdentity(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	mockNotifier := new(MockQueuePublisher)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 1,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, mockNotifier, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.Anything).Return(1, nil)
	mockNotifier.On("PublishIngested", mock.Anything, mock.MatchedBy(func(note *queue.IngestedNotification) bool {
		return note.EventID == "1" &&
			note.EntityID == "c-1" &&
			note.CorrelationID == "corr-1" &&
			note.Timestamp == "2026-01-15T12:00:00Z"
	})).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 1)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", nil, nil)

	time.Sleep(100 * time.Millisecond)

	mockNotifier.AssertExpectations(t)
}

func TestBatchWriter_Start_InsertFailureNacks(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	mockNotifier := new(MockQueuePublisher)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 2,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, mockNotifier, config, log)

	insertErr := errors.New("clickhouse not ready")
	mockRepo.On("InsertBatch", mock.Anything, mock.Anything).Return(0, insertErr)

	var acked, nacked atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", &acked, &nacked)
	in <- createTestEnvelope("2", &acked, &nacked)

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), acked.Load())
	assert.Equal(t, int32(2), nacked.Load())
	mockNotifier.AssertNotCalled(t, "PublishIngested", mock.Anything, mock.Anything)
}

func TestBatchWriter_Start_PartialInsertNacks(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 3,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, nil, config, log)

	// Repository reports fewer rows than the batch carried
	mockRepo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 3
	})).Return(2, nil)

	var acked, nacked atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", &acked, &nacked)
	in <- createTestEnvelope("2", &acked, &nacked)
	in <- createTestEnvelope("3", &acked, &nacked)

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), acked.Load())
	assert.Equal(t, int32(3), nacked.Load())
}

func TestBatchWriter_Start_NotifyFailureDoesNotNack(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	mockNotifier := new(MockQueuePublisher)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 1,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, mockNotifier, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.Anything).Return(1, nil)

	publishErr := errors.New("SQS unavailable")
	mockNotifier.On("PublishIngested", mock.Anything, mock.Anything).Return(publishErr)

	var acked, nacked atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 1)
	go writer.Start(ctx, in)

	in <- createTestEnvelope("1", &acked, &nacked)

	time.Sleep(100 * time.Millisecond)

	// Storage succeeded; a lost notification must not cause redelivery
	assert.Equal(t, int32(1), acked.Load())
	assert.Equal(t, int32(0), nacked.Load())
}

func TestBatchWriter_Start_GracefulShutdownFlushes(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 10,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, nil, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 2
	})).Return(2, nil)

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan *Envelope, 5)
	done := make(chan bool)

	go func() {
		writer.Start(ctx, in)
		done <- true
	}()

	in <- createTestEnvelope("1", nil, nil)
	in <- createTestEnvelope("2", nil, nil)

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Graceful shutdown took too long")
	}

	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_Start_InputChannelClosedFlushes(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 10,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, nil, config, log)

	mockRepo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 2
	})).Return(2, nil)

	in := make(chan *Envelope, 5)
	done := make(chan bool)

	go func() {
		writer.Start(context.Background(), in)
		done <- true
	}()

	in <- createTestEnvelope("1", nil, nil)
	in <- createTestEnvelope("2", nil, nil)
	close(in)

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Shutdown took too long after input channel closed")
	}

	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_Start_EmptyBatchNotFlushed(t *testing.T) {
	mockRepo := new(MockAnalyticsRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 10,
		FlushTimeout: 50 * time.Millisecond,
	}

	writer := NewBatchWriter(mockRepo, nil, config, log)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	<-ctx.Done()

	mockRepo.AssertNotCalled(t, "InsertBatch")
}
