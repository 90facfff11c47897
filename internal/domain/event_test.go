package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEntityType(t *testing.T) {
	tests := []struct {
		eventType string
		expected  EntityType
	}{
		{"contact.created", EntityContact},
		{"contact.deleted", EntityContact},
		{"inbox.message.sent", EntityInboxMessage},
		{"inbox.message.received", EntityInboxMessage},
		{"inbox.thread.opened", EntityInboxThread},
		{"campaign.sent", EntityCampaign},
		{"campaign.clicked", EntityCampaign},
		{"workflow.started", EntityWorkflowRun},
		{"sequence.step.completed", EntitySequenceRun},
		{"template.used", EntityTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyEntityType(tt.eventType))
		})
	}
}

func TestClassifyEntityType_UnrecognizedFallsBackToContact(t *testing.T) {
	// Documented compatibility fallback: unrecognized types classify as
	// contact rather than being rejected.
	assert.Equal(t, EntityContact, ClassifyEntityType("billing.invoice.paid"))
	assert.Equal(t, EntityContact, ClassifyEntityType(""))
	assert.Equal(t, EntityContact, ClassifyEntityType("inbox.unknown"))
}

func TestEntityIDFields_KnownAndDefault(t *testing.T) {
	assert.Equal(t, []string{"workflowRunId", "runId", "workflowId"}, EntityIDFields(EntityWorkflowRun))
	assert.Equal(t, []string{"messageId", "id"}, EntityIDFields(EntityInboxMessage))
	assert.Equal(t, []string{"id"}, EntityIDFields(EntityType("something_else")))
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		raw      string
		expected Channel
	}{
		{"whatsapp", ChannelWhatsApp},
		{"WhatsApp", ChannelWhatsApp},
		{"SMS", ChannelSMS},
		{"email", ChannelEmail},
		{"push", ChannelPush},
		{"internal", ChannelInternal},
		{"carrier-pigeon", ChannelUnknown},
		{"", ChannelUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseChannel(tt.raw), "raw=%q", tt.raw)
	}
}
