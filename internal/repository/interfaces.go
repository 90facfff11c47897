package repository

import (
	"context"
	"time"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/timerange"
)

// Dimension names accepted by CountByTimeBucketAndDimension. Dimension names
// are embedded in generated SQL, so only allow-listed values are permitted.
const (
	DimensionChannel    = "channel"
	DimensionEventType  = "event_type"
	DimensionEntityType = "entity_type"
)

// AggregatedCount is a key plus its row count.
type AggregatedCount struct {
	Key   string
	Count uint64
}

// TimeBucketCount is a time bucket start plus its row count.
type TimeBucketCount struct {
	Bucket time.Time
	Count  uint64
}

// TimeBucketDimensionCount is a (bucket, dimension value) pair plus count.
type TimeBucketDimensionCount struct {
	Bucket    time.Time
	Dimension string
	Count     uint64
}

// AnalyticsRepository defines the event store operations. The read primitives
// carry the graceful-degradation contract in their signatures: they never
// fail, they log and return empty or zero results when the store is
// unavailable. Analytics must never be a hard dependency of business flows.
type AnalyticsRepository interface {
	// InsertBatch appends rows to the store. No uniqueness is enforced beyond
	// the generated id: duplicate bus delivery produces duplicate rows.
	InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) (int, error)

	// CountByEventType returns grouped counts, optionally restricted to an
	// allow-list of event types, ordered by count descending.
	CountByEventType(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string) []AggregatedCount

	// CountByEntityType returns grouped counts per entity classification.
	CountByEntityType(ctx context.Context, tenantID string, tr timerange.TimeRange) []AggregatedCount

	// CountByChannel returns grouped counts per channel, optionally scoped to
	// one entity type.
	CountByChannel(ctx context.Context, tenantID string, tr timerange.TimeRange, entityType domain.EntityType) []AggregatedCount

	// CountByTimeBucket returns counts per time bucket, bucket width selected
	// by the range granularity, ordered ascending by bucket.
	CountByTimeBucket(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string) []TimeBucketCount

	// CountByTimeBucketAndDimension groups by (bucket, dimension), ordered by
	// bucket ascending then count descending within a bucket. The dimension
	// must be one of the Dimension constants.
	CountByTimeBucketAndDimension(ctx context.Context, tenantID string, tr timerange.TimeRange, dimension string, eventTypes []string, entityType domain.EntityType) []TimeBucketDimensionCount

	// TotalCount returns the row count for the range, optionally restricted
	// by event types and entity type.
	TotalCount(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string, entityType domain.EntityType) uint64

	// CountByMetadataField groups by a value extracted from the opaque
	// metadata document. Rows with an empty extracted value are excluded and
	// results are capped at the top 100 by count descending.
	CountByMetadataField(ctx context.Context, tenantID string, tr timerange.TimeRange, field string, eventTypes []string) []AggregatedCount

	// Ready reports whether the store connection was established. Every read
	// primitive short-circuits to its empty default when not ready.
	Ready() bool

	// InitSchema creates the events table if absent.
	InitSchema(ctx context.Context) error

	// Ping checks the store connection.
	Ping(ctx context.Context) error

	// Close releases the store connection.
	Close() error
}
