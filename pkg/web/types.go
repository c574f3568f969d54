// Package web exposes the engine over HTTP for operational tooling and
// for messaging platforms that push events with webhooks.
package web

import "github.com/dukex/convoflow/pkg/models"

// StartConversationRequest reports a new conversation.
type StartConversationRequest struct {
	ChannelID   string         `json:"channel_id"             validate:"required"`
	ContactID   string         `json:"contact_id"             validate:"required"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// MessageRequest reports a message received from a contact.
type MessageRequest struct {
	ChannelID   string              `json:"channel_id"             validate:"required"`
	ContactID   string              `json:"contact_id"             validate:"required"`
	Text        string              `json:"text"                   validate:"required_without=ButtonReply"`
	ButtonReply *models.ButtonReply `json:"button_reply,omitempty"`
}

// NodeTypeResponse describes a node type available to automations.
type NodeTypeResponse struct {
	Type        models.NodeType `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      map[string]any  `json:"schema"`
}

// ExecutionLogsResponse lists the node attempts of an execution.
type ExecutionLogsResponse struct {
	ExecutionID string                 `json:"execution_id"`
	Logs        []*models.ExecutionLog `json:"logs"`
}
