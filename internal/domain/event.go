package domain

import (
	"strings"
	"time"
)

// EntityType is the coarse classification of what an analytics row is about.
type EntityType string

const (
	EntityContact      EntityType = "contact"
	EntityInboxMessage EntityType = "inbox_message"
	EntityInboxThread  EntityType = "inbox_thread"
	EntityCampaign     EntityType = "campaign"
	EntityWorkflowRun  EntityType = "workflow_run"
	EntitySequenceRun  EntityType = "sequence_run"
	EntityTemplate     EntityType = "template"
)

// Channel is the delivery channel an event relates to.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
	ChannelInternal Channel = "internal"
	ChannelUnknown  Channel = "unknown"
)

// Event types emitted by the upstream CRUD domains and consumed by analytics.
const (
	EventContactCreated        = "contact.created"
	EventContactUpdated        = "contact.updated"
	EventContactDeleted        = "contact.deleted"
	EventMessageSent           = "inbox.message.sent"
	EventMessageReceived       = "inbox.message.received"
	EventThreadOpened          = "inbox.thread.opened"
	EventCampaignSent          = "campaign.sent"
	EventCampaignDelivered     = "campaign.delivered"
	EventCampaignOpened        = "campaign.opened"
	EventCampaignClicked       = "campaign.clicked"
	EventWorkflowStarted       = "workflow.started"
	EventWorkflowCompleted     = "workflow.completed"
	EventSequenceStepCompleted = "sequence.step.completed"
	EventSequenceCompleted     = "sequence.completed"
	EventTemplateUsed          = "template.used"
	EventAnalyticsIngested     = "analytics.ingested"
)

// AnalyticsEvent represents a canonical analytics row stored in ClickHouse.
// Rows are append-only and immutable; corrections are new events.
type AnalyticsEvent struct {
	ID         string     `ch:"id"`
	TenantID   string     `ch:"tenant_id"`
	Timestamp  time.Time  `ch:"timestamp"`
	EventType  string     `ch:"event_type"`
	EntityType EntityType `ch:"entity_type"`
	EntityID   string     `ch:"entity_id"`
	Channel    Channel    `ch:"channel"`
	Metadata   string     `ch:"metadata"`
}

// entityRule maps an event type prefix to an entity classification.
type entityRule struct {
	prefix string
	entity EntityType
}

// entityRules is tested in order; the inbox prefixes are more specific than
// the rest so ordering doubles as longest-prefix matching.
var entityRules = []entityRule{
	{"contact.", EntityContact},
	{"inbox.message", EntityInboxMessage},
	{"inbox.thread", EntityInboxThread},
	{"campaign.", EntityCampaign},
	{"workflow.", EntityWorkflowRun},
	{"sequence.", EntitySequenceRun},
	{"template.", EntityTemplate},
}

// ClassifyEntityType derives the entity classification from an event type.
// Unrecognized event types fall back to EntityContact. The fallback mirrors
// the upstream producer contract and conflates "unrecognized" with "contact";
// it is kept for compatibility and is likely a latent bug upstream.
func ClassifyEntityType(eventType string) EntityType {
	for _, rule := range entityRules {
		if strings.HasPrefix(eventType, rule.prefix) {
			return rule.entity
		}
	}
	return EntityContact
}

// entityIDFields lists, per entity type, the payload fields tried in order
// when extracting the entity id. First non-empty value wins.
var entityIDFields = map[EntityType][]string{
	EntityContact:      {"contactId", "id"},
	EntityInboxMessage: {"messageId", "id"},
	EntityInboxThread:  {"threadId", "id"},
	EntityCampaign:     {"campaignId", "id"},
	EntityWorkflowRun:  {"workflowRunId", "runId", "workflowId"},
	EntitySequenceRun:  {"sequenceRunId", "runId", "sequenceId"},
	EntityTemplate:     {"templateId", "id"},
}

// EntityIDFields returns the ordered payload field names used to extract the
// entity id for the given entity type.
func EntityIDFields(entity EntityType) []string {
	if fields, ok := entityIDFields[entity]; ok {
		return fields
	}
	return []string{"id"}
}

// ParseChannel coerces a raw channel value to the fixed enum. Matching is
// case-insensitive; anything unmatched, including the empty string, maps to
// ChannelUnknown.
func ParseChannel(raw string) Channel {
	switch strings.ToLower(raw) {
	case "whatsapp":
		return ChannelWhatsApp
	case "sms":
		return ChannelSMS
	case "email":
		return ChannelEmail
	case "push":
		return ChannelPush
	case "internal":
		return ChannelInternal
	default:
		return ChannelUnknown
	}
}
