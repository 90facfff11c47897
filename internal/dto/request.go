package dto

// PublishEventRequest represents a source domain event publication request.
// The payload is an arbitrary JSON object; the bus contract only requires a
// tenantId inside it.
type PublishEventRequest struct {
	EventType string                 `json:"event_type" binding:"required" example:"contact.created"`
	Payload   map[string]interface{} `json:"payload" binding:"required" swaggertype:"object,string" example:"tenantId:t1,contactId:c1"`
}

// PublishEventsBulkRequest represents a bulk publication request.
type PublishEventsBulkRequest struct {
	Events []PublishEventRequest `json:"events" binding:"required,min=1,max=1000,dive"`
}

// AnalyticsQuery carries the query window parameters plus the view-specific
// optional exact-match filters of the dashboard contract.
type AnalyticsQuery struct {
	From        string `form:"from" example:"2026-01-01T00:00:00Z"`
	To          string `form:"to" example:"2026-01-31T00:00:00Z"`
	Timezone    string `form:"timezone" example:"Europe/Berlin"`
	Granularity string `form:"granularity" example:"day"`
	Channel     string `form:"channel" example:"whatsapp"`
	Direction   string `form:"direction" example:"outbound"`
	CampaignID  string `form:"campaignId" example:"cmp_987"`
	WorkflowID  string `form:"workflowId" example:"wf_123"`
	SequenceID  string `form:"sequenceId" example:"seq_456"`
	TemplateID  string `form:"templateId" example:"tpl_789"`
}
