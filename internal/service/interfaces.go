package service

import (
	"context"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/dto"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/timerange"
)

// EventServicer defines the event publication operations.
type EventServicer interface {
	Publish(ctx context.Context, event *dto.PublishEventRequest) error
	PublishBulk(ctx context.Context, events []dto.PublishEventRequest) (int, []string)
}

// AnalyticsServicer defines the analytics view operations. Views never fail:
// an unavailable store degrades to empty data.
type AnalyticsServicer interface {
	Overview(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.OverviewStats
	Messages(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.MessagesView
	Campaigns(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.CampaignView
	Workflows(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.WorkflowView
	Sequences(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.SequenceView
	Templates(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.TemplateView
	Traffic(ctx context.Context, tenantID string, tr timerange.TimeRange) *dto.TrafficView
}
