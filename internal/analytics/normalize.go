// Package analytics maps heterogeneous source-event payloads into the
// canonical analytics row shape. Normalization is total: absent or malformed
// fields degrade to defaults instead of failing ingestion.
package analytics

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/domain"
)

// SourcePayload carries the fields a source domain event may include. Every
// field is optional except TenantID, which the bus contract guarantees.
// Unknown payload fields are ignored on decode.
type SourcePayload struct {
	TenantID      string `json:"tenantId"`
	Timestamp     int64  `json:"timestamp"` // epoch milliseconds
	Channel       string `json:"channel"`
	ID            string `json:"id"`
	ContactID     string `json:"contactId"`
	CampaignID    string `json:"campaignId"`
	WorkflowID    string `json:"workflowId"`
	WorkflowRunID string `json:"workflowRunId"`
	RunID         string `json:"runId"`
	SequenceID    string `json:"sequenceId"`
	SequenceRunID string `json:"sequenceRunId"`
	TemplateID    string `json:"templateId"`
	ThreadID      string `json:"threadId"`
	MessageID     string `json:"messageId"`
	UserID        string `json:"userId"`
	Source        string `json:"source"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage"`
	Direction     string `json:"direction"`
	StepID        string `json:"stepId"`
	StepIndex     *int   `json:"stepIndex"`
	CorrelationID string `json:"correlationId"`
}

// field returns the payload value for a known field name, or "" when the
// name is unknown or the field is empty.
func (p *SourcePayload) field(name string) string {
	switch name {
	case "id":
		return p.ID
	case "contactId":
		return p.ContactID
	case "campaignId":
		return p.CampaignID
	case "workflowId":
		return p.WorkflowID
	case "workflowRunId":
		return p.WorkflowRunID
	case "runId":
		return p.RunID
	case "sequenceId":
		return p.SequenceID
	case "sequenceRunId":
		return p.SequenceRunID
	case "templateId":
		return p.TemplateID
	case "threadId":
		return p.ThreadID
	case "messageId":
		return p.MessageID
	case "userId":
		return p.UserID
	case "source":
		return p.Source
	case "status":
		return p.Status
	case "errorMessage":
		return p.ErrorMessage
	default:
		return ""
	}
}

// metadataFields is the whitelist of correlating identifiers copied into the
// row metadata when present.
var metadataFields = []string{
	"contactId", "campaignId", "workflowId", "workflowRunId",
	"sequenceId", "sequenceRunId", "templateId", "threadId",
	"messageId", "userId", "source", "status", "errorMessage",
}

// Normalize maps a source event to a canonical analytics row. It never fails:
// a missing timestamp defaults to now, a missing entity id stays empty, an
// unrecognized channel becomes "unknown".
func Normalize(eventType string, payload *SourcePayload) *domain.AnalyticsEvent {
	ts := time.Now()
	if payload.Timestamp > 0 {
		ts = time.UnixMilli(payload.Timestamp)
	}

	entityType := domain.ClassifyEntityType(eventType)

	entityID := ""
	for _, name := range domain.EntityIDFields(entityType) {
		if v := payload.field(name); v != "" {
			entityID = v
			break
		}
	}

	return &domain.AnalyticsEvent{
		ID:         uuid.NewString(),
		TenantID:   payload.TenantID,
		Timestamp:  ts,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Channel:    domain.ParseChannel(payload.Channel),
		Metadata:   buildMetadata(eventType, payload),
	}
}

// buildMetadata flattens the whitelisted correlating fields to a JSON blob.
// The store treats it as an opaque document queryable by key.
func buildMetadata(eventType string, payload *SourcePayload) string {
	meta := make(map[string]string)
	for _, name := range metadataFields {
		if v := payload.field(name); v != "" {
			meta[name] = v
		}
	}
	if strings.HasPrefix(eventType, "inbox.message") && payload.Direction != "" {
		meta["direction"] = payload.Direction
	}
	if strings.HasPrefix(eventType, "sequence.step") {
		if payload.StepID != "" {
			meta["stepId"] = payload.StepID
		}
		if payload.StepIndex != nil {
			meta["stepIndex"] = strconv.Itoa(*payload.StepIndex)
		}
	}
	if payload.CorrelationID != "" {
		meta["correlationId"] = payload.CorrelationID
	}

	if len(meta) == 0 {
		return "{}"
	}
	blob, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(blob)
}

// DecodePayload parses a raw bus message body. Malformed JSON yields an
// empty payload rather than an error so ingestion stays total.
func DecodePayload(body []byte) *SourcePayload {
	var payload SourcePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return &SourcePayload{}
	}
	return &payload
}
