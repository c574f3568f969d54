// Package events defines the events exchanged with the messaging platform:
// inbound conversation activity, outbound message commands and automation
// lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const (
	InboundTopic   = "convoflow.inbound"   // Conversation activity delivered by the platform
	OutboundTopic  = "convoflow.outbound"  // Messages the platform must deliver to contacts
	LifecycleTopic = "convoflow.lifecycle" // Automation lifecycle and chat UI notifications
)

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Inbound events.
	ConversationStartedEvent EventType = "conversation.started"
	MessageReceivedEvent     EventType = "message.received"
	ConversationClosedEvent  EventType = "conversation.closed"

	// Outbound events.
	MessageOutboundEvent EventType = "message.outbound"
	MessageSentEvent     EventType = "message.sent"

	// Automation lifecycle events.
	ExecutionStartedEvent   EventType = "automation.execution.started"
	ExecutionPausedEvent    EventType = "automation.execution.paused"
	ExecutionResumedEvent   EventType = "automation.execution.resumed"
	ExecutionCompletedEvent EventType = "automation.execution.completed"
	ExecutionFailedEvent    EventType = "automation.execution.failed"
	ExecutionTimedOutEvent  EventType = "automation.execution.timed_out"
	ExecutionCancelledEvent EventType = "automation.execution.cancelled"
	NodeFailedEvent         EventType = "automation.node.failed"
)

// TopicFor returns the topic an event type travels on.
func TopicFor(eventType EventType) string {
	switch eventType {
	case ConversationStartedEvent, MessageReceivedEvent, ConversationClosedEvent:
		return InboundTopic
	case MessageOutboundEvent:
		return OutboundTopic
	default:
		return LifecycleTopic
	}
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ConversationStarted is published when a contact opens a new conversation.
type ConversationStarted struct {
	BaseEvent

	ConversationID string         `json:"conversation_id"`
	ChannelID      string         `json:"channel_id"`
	ContactID      string         `json:"contact_id"`
	TriggerData    map[string]any `json:"trigger_data,omitempty"`
}

func (e ConversationStarted) GetType() EventType {
	return ConversationStartedEvent
}

// MessageReceived is published for every inbound contact message.
type MessageReceived struct {
	BaseEvent

	ConversationID string              `json:"conversation_id"`
	ChannelID      string              `json:"channel_id"`
	ContactID      string              `json:"contact_id"`
	MessageID      string              `json:"message_id,omitempty"`
	Text           string              `json:"text"`
	ButtonReply    *models.ButtonReply `json:"button_reply,omitempty"`
}

func (e MessageReceived) GetType() EventType {
	return MessageReceivedEvent
}

// Message returns the inbound message carried by the event.
func (e MessageReceived) Message() models.InboundMessage {
	return models.InboundMessage{Text: e.Text, ButtonReply: e.ButtonReply}
}

type ConversationClosed struct {
	BaseEvent

	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason,omitempty"`
}

func (e ConversationClosed) GetType() EventType {
	return ConversationClosedEvent
}

// OutboundKind tells the delivery side which provider call to make.
type OutboundKind string

const (
	OutboundText        OutboundKind = "text"
	OutboundInteractive OutboundKind = "interactive"
	OutboundTemplate    OutboundKind = "template"
	OutboundMedia       OutboundKind = "media"
)

// MessageOutbound is a command to deliver one message to a contact.
type MessageOutbound struct {
	BaseEvent

	MessageID    string                  `json:"message_id"`
	Kind         OutboundKind            `json:"kind"`
	ChannelID    string                  `json:"channel_id"`
	Phone        string                  `json:"phone"`
	Text         string                  `json:"text,omitempty"`
	Buttons      []models.Button         `json:"buttons,omitempty"`
	TemplateName string                  `json:"template_name,omitempty"`
	Params       []string                `json:"params,omitempty"`
	Media        *models.MediaAttachment `json:"media,omitempty"`
}

func (e MessageOutbound) GetType() EventType {
	return MessageOutboundEvent
}

// MessageSent tells chat listeners that an automation wrote to a conversation.
type MessageSent struct {
	BaseEvent

	ExecutionID    string    `json:"execution_id"`
	ConversationID string    `json:"conversation_id"`
	ContactID      string    `json:"contact_id"`
	ChannelID      string    `json:"channel_id"`
	MessageID      string    `json:"message_id"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sent_at"`
}

func (e MessageSent) GetType() EventType {
	return MessageSentEvent
}

// ExecutionLifecycle carries every automation.* event; Type tells which.
type ExecutionLifecycle struct {
	BaseEvent

	ExecutionID    string                 `json:"execution_id"`
	AutomationID   string                 `json:"automation_id"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	ContactID      string                 `json:"contact_id,omitempty"`
	Status         models.ExecutionStatus `json:"status"`
	Result         string                 `json:"result,omitempty"`
	Details        map[string]any         `json:"details,omitempty"`
}

func (e ExecutionLifecycle) GetType() EventType {
	return e.Type
}

// IsLifecycle reports whether eventType is an automation lifecycle event.
func IsLifecycle(eventType EventType) bool {
	switch eventType {
	case ExecutionStartedEvent, ExecutionPausedEvent, ExecutionResumedEvent, ExecutionCompletedEvent,
		ExecutionFailedEvent, ExecutionTimedOutEvent, ExecutionCancelledEvent, NodeFailedEvent:
		return true
	default:
		return false
	}
}

// New returns an empty event value for eventType, ready to be unmarshalled.
func New(eventType EventType) (any, bool) {
	switch {
	case eventType == ConversationStartedEvent:
		return &ConversationStarted{}, true
	case eventType == MessageReceivedEvent:
		return &MessageReceived{}, true
	case eventType == ConversationClosedEvent:
		return &ConversationClosed{}, true
	case eventType == MessageOutboundEvent:
		return &MessageOutbound{}, true
	case eventType == MessageSentEvent:
		return &MessageSent{}, true
	case IsLifecycle(eventType):
		return &ExecutionLifecycle{}, true
	default:
		return nil, false
	}
}
