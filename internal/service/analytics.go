package service

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/dto"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/repository"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/timerange"
)

// AnalyticsService composes store primitives into per-domain analytics
// views. It owns no state; every view fans its independent sub-queries out
// concurrently and assembles the result once all complete. The primitives
// degrade to empty results when the store is down, so views never fail.
type AnalyticsService struct {
	repository repository.AnalyticsRepository
	log        *zap.Logger
}

// NewAnalyticsService creates a new analytics query service.
func NewAnalyticsService(repo repository.AnalyticsRepository, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		repository: repo,
		log:        log,
	}
}

// Overview derives the cross-domain dashboard totals from grouped event-type
// counts plus the activity time series.
func (s *AnalyticsService) Overview(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.OverviewStats {
	var (
		byType   []repository.AggregatedCount
		activity []repository.TimeBucketCount
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		byType = s.repository.CountByEventType(ctx, tenantID, tr, nil)
	}()
	go func() {
		defer wg.Done()
		activity = s.repository.CountByTimeBucket(ctx, tenantID, tr, nil)
	}()
	wg.Wait()

	// Exact-match key lookups: each total maps to specific event types, not
	// prefixes. Messages sums both directions.
	return &dto.OverviewStats{
		Totals: dto.OverviewTotals{
			Contacts:  countFor(byType, domain.EventContactCreated),
			Messages:  countFor(byType, domain.EventMessageSent) + countFor(byType, domain.EventMessageReceived),
			Campaigns: countFor(byType, domain.EventCampaignSent),
			Workflows: countFor(byType, domain.EventWorkflowStarted),
			Sequences: countFor(byType, domain.EventSequenceCompleted),
		},
		EventsByType: toKeyCounts(byType),
		Activity:     toTimeBuckets(activity),
	}
}

// Messages aggregates inbox message traffic, split by direction and channel.
func (s *AnalyticsService) Messages(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.MessagesView {
	messageTypes := []string{domain.EventMessageSent, domain.EventMessageReceived}

	var (
		byType    []repository.AggregatedCount
		byChannel []repository.AggregatedCount
		series    []repository.TimeBucketCount
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		byType = s.repository.CountByEventType(ctx, tenantID, tr, messageTypes)
	}()
	go func() {
		defer wg.Done()
		byChannel = s.repository.CountByChannel(ctx, tenantID, tr, domain.EntityInboxMessage)
	}()
	go func() {
		defer wg.Done()
		series = s.repository.CountByTimeBucket(ctx, tenantID, tr, messageTypes)
	}()
	wg.Wait()

	byDirection := make([]dto.KeyCount, 0, len(byType))
	for _, item := range byType {
		direction := "inbound"
		if item.Key == domain.EventMessageSent {
			direction = "outbound"
		}
		byDirection = append(byDirection, dto.KeyCount{Key: direction, Count: item.Count})
	}

	return &dto.MessagesView{
		TotalSent:     countFor(byType, domain.EventMessageSent),
		TotalReceived: countFor(byType, domain.EventMessageReceived),
		ByDirection:   byDirection,
		ByChannel:     toKeyCounts(byChannel),
		TimeSeries:    toTimeBuckets(series),
	}
}

// Campaigns aggregates the campaign funnel and its derived rates.
func (s *AnalyticsService) Campaigns(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.CampaignView {
	campaignTypes := []string{
		domain.EventCampaignSent,
		domain.EventCampaignDelivered,
		domain.EventCampaignOpened,
		domain.EventCampaignClicked,
	}

	var (
		byType []repository.AggregatedCount
		series []repository.TimeBucketCount
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		byType = s.repository.CountByEventType(ctx, tenantID, tr, campaignTypes)
	}()
	go func() {
		defer wg.Done()
		series = s.repository.CountByTimeBucket(ctx, tenantID, tr, campaignTypes)
	}()
	wg.Wait()

	sent := countFor(byType, domain.EventCampaignSent)
	delivered := countFor(byType, domain.EventCampaignDelivered)
	opened := countFor(byType, domain.EventCampaignOpened)
	clicked := countFor(byType, domain.EventCampaignClicked)

	return &dto.CampaignView{
		Sent:         sent,
		Delivered:    delivered,
		Opened:       opened,
		Clicked:      clicked,
		DeliveryRate: rate(delivered, sent),
		OpenRate:     rate(opened, delivered),
		ClickRate:    rate(clicked, opened),
		TimeSeries:   toTimeBuckets(series),
	}
}

// Workflows aggregates workflow run starts and completions.
func (s *AnalyticsService) Workflows(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.WorkflowView {
	workflowTypes := []string{domain.EventWorkflowStarted, domain.EventWorkflowCompleted}

	var (
		byType []repository.AggregatedCount
		series []repository.TimeBucketCount
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		byType = s.repository.CountByEventType(ctx, tenantID, tr, workflowTypes)
	}()
	go func() {
		defer wg.Done()
		series = s.repository.CountByTimeBucket(ctx, tenantID, tr, workflowTypes)
	}()
	wg.Wait()

	started := countFor(byType, domain.EventWorkflowStarted)
	completed := countFor(byType, domain.EventWorkflowCompleted)

	return &dto.WorkflowView{
		Started:        started,
		Completed:      completed,
		CompletionRate: rate(completed, started),
		TimeSeries:     toTimeBuckets(series),
	}
}

// Sequences aggregates sequence run progress. Enrollment counts every
// sequence_run row in the window rather than a dedicated enrollment event,
// so the completion rate is an approximation.
func (s *AnalyticsService) Sequences(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.SequenceView {
	sequenceTypes := []string{domain.EventSequenceStepCompleted, domain.EventSequenceCompleted}

	var (
		byType   []repository.AggregatedCount
		enrolled uint64
		series   []repository.TimeBucketCount
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		byType = s.repository.CountByEventType(ctx, tenantID, tr, sequenceTypes)
	}()
	go func() {
		defer wg.Done()
		enrolled = s.repository.TotalCount(ctx, tenantID, tr, nil, domain.EntitySequenceRun)
	}()
	go func() {
		defer wg.Done()
		series = s.repository.CountByTimeBucket(ctx, tenantID, tr, sequenceTypes)
	}()
	wg.Wait()

	completed := countFor(byType, domain.EventSequenceCompleted)

	return &dto.SequenceView{
		TotalEnrolled:  enrolled,
		StepsCompleted: countFor(byType, domain.EventSequenceStepCompleted),
		Completed:      completed,
		CompletionRate: rate(completed, enrolled),
		TimeSeries:     toTimeBuckets(series),
	}
}

// Templates aggregates template usage, including the metadata-field grouping
// by templateId.
func (s *AnalyticsService) Templates(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.TemplateView {
	usedTypes := []string{domain.EventTemplateUsed}

	var (
		totalUsed  uint64
		byTemplate []repository.AggregatedCount
		byChannel  []repository.AggregatedCount
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		totalUsed = s.repository.TotalCount(ctx, tenantID, tr, usedTypes, "")
	}()
	go func() {
		defer wg.Done()
		byTemplate = s.repository.CountByMetadataField(ctx, tenantID, tr, "templateId", usedTypes)
	}()
	go func() {
		defer wg.Done()
		byChannel = s.repository.CountByChannel(ctx, tenantID, tr, domain.EntityTemplate)
	}()
	wg.Wait()

	return &dto.TemplateView{
		TotalUsed:  totalUsed,
		ByTemplate: toKeyCounts(byTemplate),
		ByChannel:  toKeyCounts(byChannel),
	}
}

// Traffic is the unrestricted view. Traffic dashboards are always hourly,
// so the caller's granularity is overridden.
func (s *AnalyticsService) Traffic(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.TrafficView {
	tr.Granularity = timerange.GranularityHour

	var (
		total       uint64
		byChannel   []repository.AggregatedCount
		byEventType []repository.AggregatedCount
		series      []repository.TimeBucketCount
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		total = s.repository.TotalCount(ctx, tenantID, tr, nil, "")
	}()
	go func() {
		defer wg.Done()
		byChannel = s.repository.CountByChannel(ctx, tenantID, tr, "")
	}()
	go func() {
		defer wg.Done()
		byEventType = s.repository.CountByEventType(ctx, tenantID, tr, nil)
	}()
	go func() {
		defer wg.Done()
		series = s.repository.CountByTimeBucket(ctx, tenantID, tr, nil)
	}()
	wg.Wait()

	return &dto.TrafficView{
		Total:       total,
		ByChannel:   toKeyCounts(byChannel),
		ByEventType: toKeyCounts(byEventType),
		TimeSeries:  toTimeBuckets(series),
	}
}

// rate computes numerator/denominator as a percentage rounded to two
// decimals. A zero denominator yields zero, never NaN.
func rate(numerator, denominator uint64) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*10000) / 100
}

// countFor returns the count for an exact key, zero when absent.
func countFor(counts []repository.AggregatedCount, key string) uint64 {
	for _, item := range counts {
		if item.Key == key {
			return item.Count
		}
	}
	return 0
}

func toKeyCounts(counts []repository.AggregatedCount) []dto.KeyCount {
	results := make([]dto.KeyCount, 0, len(counts))
	for _, item := range counts {
		results = append(results, dto.KeyCount{Key: item.Key, Count: item.Count})
	}
	return results
}

func toTimeBuckets(buckets []repository.TimeBucketCount) []dto.TimeBucket {
	results := make([]dto.TimeBucket, 0, len(buckets))
	for _, item := range buckets {
		results = append(results, dto.TimeBucket{Bucket: item.Bucket, Count: item.Count})
	}
	return results
}
