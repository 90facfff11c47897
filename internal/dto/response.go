package dto

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string   `json:"error" example:"validation_error"`
	Message string   `json:"message,omitempty" example:"invalid query"`
	Details []string `json:"details,omitempty"`
}

// PublishEventResponse represents an accepted event publication.
type PublishEventResponse struct {
	Status string `json:"status" example:"accepted"`
}

// PublishBulkEventsResponse represents a bulk publication result.
type PublishBulkEventsResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	Errors   []string `json:"errors,omitempty"`
}

// Meta describes the resolved query window attached to every analytics view.
type Meta struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Timezone    string    `json:"timezone" example:"UTC"`
	Granularity string    `json:"granularity" example:"day"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Envelope is the uniform response wrapper for analytics views.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

// KeyCount is a key plus its count.
type KeyCount struct {
	Key   string `json:"key" example:"whatsapp"`
	Count uint64 `json:"count" example:"1500"`
}

// TimeBucket is a bucket start plus its count.
type TimeBucket struct {
	Bucket time.Time `json:"bucket"`
	Count  uint64    `json:"count" example:"120"`
}

// OverviewTotals are the cross-domain dashboard totals.
type OverviewTotals struct {
	Contacts  uint64 `json:"contacts"`
	Messages  uint64 `json:"messages"`
	Campaigns uint64 `json:"campaigns"`
	Workflows uint64 `json:"workflows"`
	Sequences uint64 `json:"sequences"`
}

// OverviewStats is the overview dashboard view.
type OverviewStats struct {
	Totals       OverviewTotals `json:"totals"`
	EventsByType []KeyCount     `json:"eventsByType"`
	Activity     []TimeBucket   `json:"activity"`
}

// MessagesView aggregates inbox message traffic.
type MessagesView struct {
	TotalSent     uint64       `json:"totalSent"`
	TotalReceived uint64       `json:"totalReceived"`
	ByDirection   []KeyCount   `json:"byDirection"`
	ByChannel     []KeyCount   `json:"byChannel"`
	TimeSeries    []TimeBucket `json:"timeSeries"`
}

// CampaignView aggregates campaign funnel counts and derived rates.
type CampaignView struct {
	Sent         uint64       `json:"sent"`
	Delivered    uint64       `json:"delivered"`
	Opened       uint64       `json:"opened"`
	Clicked      uint64       `json:"clicked"`
	DeliveryRate float64      `json:"deliveryRate"`
	OpenRate     float64      `json:"openRate"`
	ClickRate    float64      `json:"clickRate"`
	TimeSeries   []TimeBucket `json:"timeSeries"`
}

// WorkflowView aggregates workflow run counts.
type WorkflowView struct {
	Started        uint64       `json:"started"`
	Completed      uint64       `json:"completed"`
	CompletionRate float64      `json:"completionRate"`
	TimeSeries     []TimeBucket `json:"timeSeries"`
}

// SequenceView aggregates sequence run counts. TotalEnrolled counts every
// sequence_run event in the window and is an approximation of enrollment.
type SequenceView struct {
	TotalEnrolled  uint64       `json:"totalEnrolled"`
	StepsCompleted uint64       `json:"stepsCompleted"`
	Completed      uint64       `json:"completed"`
	CompletionRate float64      `json:"completionRate"`
	TimeSeries     []TimeBucket `json:"timeSeries"`
}

// TemplateView aggregates template usage.
type TemplateView struct {
	TotalUsed  uint64     `json:"totalUsed"`
	ByTemplate []KeyCount `json:"byTemplate"`
	ByChannel  []KeyCount `json:"byChannel"`
}

// TrafficView is the unrestricted hourly traffic view.
type TrafficView struct {
	Total       uint64       `json:"total"`
	ByChannel   []KeyCount   `json:"byChannel"`
	ByEventType []KeyCount   `json:"byEventType"`
	TimeSeries  []TimeBucket `json:"timeSeries"`
}
