package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/repository"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/timerange"
)

// metadataFieldSanitizer strips characters that would break out of the
// generated JSONExtractString fragment. The field name selects a key inside
// the opaque metadata document and cannot be bound as a parameter.
var metadataFieldSanitizer = strings.NewReplacer(
	"'", "",
	`"`, "",
	";", "",
	`\`, "",
	"`", "",
)

// dimensionColumns is the allow-list of group-by dimensions. Dimension names
// are embedded in generated SQL and must never come from arbitrary input.
var dimensionColumns = map[string]string{
	repository.DimensionChannel:    "channel",
	repository.DimensionEventType:  "event_type",
	repository.DimensionEntityType: "entity_type",
}

// Repository implements repository.AnalyticsRepository for ClickHouse.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository.
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the analytics_events table if absent. The table is
// partitioned by calendar day, ordered by (tenant_id, timestamp, event_type)
// and expires rows after 365 days.
func (r *Repository) InitSchema(ctx context.Context) error {
	if !r.client.Ready() {
		return fmt.Errorf("clickhouse not ready, cannot initialize schema")
	}

	query := `
	CREATE TABLE IF NOT EXISTS analytics_events (
		id String,
		tenant_id String,
		timestamp DateTime64(3),
		event_type LowCardinality(String),
		entity_type LowCardinality(String),
		entity_id String,
		channel LowCardinality(String),
		metadata String
	) ENGINE = MergeTree
	ORDER BY (tenant_id, timestamp, event_type)
	PARTITION BY toDate(timestamp)
	TTL toDateTime(timestamp) + INTERVAL 365 DAY
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create analytics_events table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch appends a batch of analytics events. Rows are write-once;
// duplicate deliveries from the bus produce duplicate rows on purpose.
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if !r.client.Ready() {
		return 0, fmt.Errorf("clickhouse not ready")
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO analytics_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, event := range events {
		metadata := event.Metadata
		if metadata == "" {
			metadata = "{}"
		}

		err := batch.Append(
			event.ID,
			event.TenantID,
			event.Timestamp,
			event.EventType,
			string(event.EntityType),
			event.EntityID,
			string(event.Channel),
			metadata,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// CountByEventType returns grouped counts per event type, ordered by count
// descending.
func (r *Repository) CountByEventType(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string) []repository.AggregatedCount {
	where, args := r.baseFilter(tenantID, tr)
	where, args = appendIn(where, args, "event_type", eventTypes)

	query := fmt.Sprintf(`
		SELECT event_type AS key, count() AS total
		FROM analytics_events
		%s
		GROUP BY event_type
		ORDER BY total DESC
	`, where)

	return r.queryCounts(ctx, "count_by_event_type", query, args)
}

// CountByEntityType returns grouped counts per entity classification.
func (r *Repository) CountByEntityType(ctx context.Context, tenantID string, tr timerange.TimeRange) []repository.AggregatedCount {
	where, args := r.baseFilter(tenantID, tr)

	query := fmt.Sprintf(`
		SELECT entity_type AS key, count() AS total
		FROM analytics_events
		%s
		GROUP BY entity_type
		ORDER BY total DESC
	`, where)

	return r.queryCounts(ctx, "count_by_entity_type", query, args)
}

// CountByChannel returns grouped counts per channel, optionally scoped to a
// single entity type.
func (r *Repository) CountByChannel(ctx context.Context, tenantID string, tr timerange.TimeRange, entityType domain.EntityType) []repository.AggregatedCount {
	where, args := r.baseFilter(tenantID, tr)
	if entityType != "" {
		where += " AND entity_type = ?"
		args = append(args, string(entityType))
	}

	query := fmt.Sprintf(`
		SELECT channel AS key, count() AS total
		FROM analytics_events
		%s
		GROUP BY channel
		ORDER BY total DESC
	`, where)

	return r.queryCounts(ctx, "count_by_channel", query, args)
}

// CountByTimeBucket returns counts per time bucket, ascending by bucket.
func (r *Repository) CountByTimeBucket(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string) []repository.TimeBucketCount {
	if !r.client.Ready() {
		return nil
	}
	start := time.Now()

	where, args := r.baseFilter(tenantID, tr)
	where, args = appendIn(where, args, "event_type", eventTypes)

	query := fmt.Sprintf(`
		SELECT %s AS bucket, count() AS total
		FROM analytics_events
		%s
		GROUP BY bucket
		ORDER BY bucket ASC
	`, bucketExpr(tr), where)

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		r.logFailure("count_by_time_bucket", start, err)
		return nil
	}
	defer rows.Close()

	var results []repository.TimeBucketCount
	for rows.Next() {
		var item repository.TimeBucketCount
		if err := rows.Scan(&item.Bucket, &item.Count); err != nil {
			r.logFailure("count_by_time_bucket", start, err)
			return nil
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		r.logFailure("count_by_time_bucket", start, err)
		return nil
	}
	return results
}

// CountByTimeBucketAndDimension groups by (bucket, dimension), ordered by
// bucket ascending then count descending within a bucket. Unknown dimensions
// yield an empty result.
func (r *Repository) CountByTimeBucketAndDimension(ctx context.Context, tenantID string, tr timerange.TimeRange, dimension string, eventTypes []string, entityType domain.EntityType) []repository.TimeBucketDimensionCount {
	if !r.client.Ready() {
		return nil
	}
	start := time.Now()

	column, ok := dimensionColumns[dimension]
	if !ok {
		r.log.Warn("Rejected unknown group-by dimension", zap.String("dimension", dimension))
		return nil
	}

	where, args := r.baseFilter(tenantID, tr)
	where, args = appendIn(where, args, "event_type", eventTypes)
	if entityType != "" {
		where += " AND entity_type = ?"
		args = append(args, string(entityType))
	}

	query := fmt.Sprintf(`
		SELECT %s AS bucket, %s AS dimension, count() AS total
		FROM analytics_events
		%s
		GROUP BY bucket, dimension
		ORDER BY bucket ASC, total DESC
	`, bucketExpr(tr), column, where)

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		r.logFailure("count_by_time_bucket_and_dimension", start, err)
		return nil
	}
	defer rows.Close()

	var results []repository.TimeBucketDimensionCount
	for rows.Next() {
		var item repository.TimeBucketDimensionCount
		if err := rows.Scan(&item.Bucket, &item.Dimension, &item.Count); err != nil {
			r.logFailure("count_by_time_bucket_and_dimension", start, err)
			return nil
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		r.logFailure("count_by_time_bucket_and_dimension", start, err)
		return nil
	}
	return results
}

// TotalCount returns the row count for the range.
func (r *Repository) TotalCount(ctx context.Context, tenantID string, tr timerange.TimeRange, eventTypes []string, entityType domain.EntityType) uint64 {
	if !r.client.Ready() {
		return 0
	}
	start := time.Now()

	where, args := r.baseFilter(tenantID, tr)
	where, args = appendIn(where, args, "event_type", eventTypes)
	if entityType != "" {
		where += " AND entity_type = ?"
		args = append(args, string(entityType))
	}

	query := fmt.Sprintf(`
		SELECT count() AS total
		FROM analytics_events
		%s
	`, where)

	var total uint64
	row := r.client.Conn().QueryRow(ctx, query, args...)
	if err := row.Scan(&total); err != nil {
		r.logFailure("total_count", start, err)
		return 0
	}
	return total
}

// CountByMetadataField groups by a value extracted from the metadata
// document. The field name cannot be bound as a parameter and is sanitized
// before interpolation. Rows with an empty extracted value are excluded and
// results are capped at the top 100.
func (r *Repository) CountByMetadataField(ctx context.Context, tenantID string, tr timerange.TimeRange, field string, eventTypes []string) []repository.AggregatedCount {
	where, args := r.baseFilter(tenantID, tr)
	where, args = appendIn(where, args, "event_type", eventTypes)

	safeField := metadataFieldSanitizer.Replace(field)

	query := fmt.Sprintf(`
		SELECT JSONExtractString(metadata, '%s') AS key, count() AS total
		FROM analytics_events
		%s
		GROUP BY key
		HAVING key != ''
		ORDER BY total DESC
		LIMIT 100
	`, safeField, where)

	return r.queryCounts(ctx, "count_by_metadata_field", query, args)
}

// Ready reports whether the backing connection was established.
func (r *Repository) Ready() bool {
	return r.client.Ready()
}

// Ping checks if the ClickHouse connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	if !r.client.Ready() {
		return fmt.Errorf("clickhouse not ready")
	}
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection.
func (r *Repository) Close() error {
	return r.client.Close()
}

// baseFilter builds the tenant and time window predicate shared by every
// read primitive.
func (r *Repository) baseFilter(tenantID string, tr timerange.TimeRange) (string, []interface{}) {
	where := "WHERE tenant_id = ? AND timestamp >= ? AND timestamp <= ?"
	args := []interface{}{tenantID, tr.From, tr.To}
	return where, args
}

// queryCounts runs a key/count aggregate and degrades to an empty result on
// any failure.
func (r *Repository) queryCounts(ctx context.Context, operation, query string, args []interface{}) []repository.AggregatedCount {
	if !r.client.Ready() {
		return nil
	}
	start := time.Now()

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		r.logFailure(operation, start, err)
		return nil
	}
	defer rows.Close()

	var results []repository.AggregatedCount
	for rows.Next() {
		var item repository.AggregatedCount
		if err := rows.Scan(&item.Key, &item.Count); err != nil {
			r.logFailure(operation, start, err)
			return nil
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		r.logFailure(operation, start, err)
		return nil
	}
	return results
}

// logFailure records a degraded read with its operation name and duration.
func (r *Repository) logFailure(operation string, start time.Time, err error) {
	r.log.Warn("Analytics query failed, returning empty result",
		zap.String("operation", operation),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
}

// bucketExpr selects the bucket function for the range granularity, applying
// the range timezone before truncation. The timezone was validated against
// the IANA database upstream; week and month buckets are widened back to
// DateTime so every granularity scans into the same column type.
func bucketExpr(tr timerange.TimeRange) string {
	ts := "timestamp"
	if tr.Timezone != "" && tr.Timezone != "UTC" {
		ts = fmt.Sprintf("toTimeZone(timestamp, '%s')", metadataFieldSanitizer.Replace(tr.Timezone))
	}

	switch tr.Granularity {
	case timerange.GranularityHour:
		return fmt.Sprintf("toStartOfHour(%s)", ts)
	case timerange.GranularityWeek:
		return fmt.Sprintf("toDateTime(toStartOfWeek(%s, 1))", ts)
	case timerange.GranularityMonth:
		return fmt.Sprintf("toDateTime(toStartOfMonth(%s))", ts)
	default:
		return fmt.Sprintf("toStartOfDay(%s)", ts)
	}
}

// appendIn extends the predicate with an IN clause over bound parameters.
func appendIn(where string, args []interface{}, column string, values []string) (string, []interface{}) {
	if len(values) == 0 {
		return where, args
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args = append(args, v)
	}
	return fmt.Sprintf("%s AND %s IN (%s)", where, column, strings.Join(placeholders, ", ")), args
}
