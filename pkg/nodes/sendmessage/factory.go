// Package sendmessage provides the send_message node factory for registry integration.
package sendmessage

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// SendMessageNodeFactory creates SendMessageNode instances.
type SendMessageNodeFactory struct {
	deps protocol.Dependencies
}

// Create creates a new SendMessageNode instance.
func (f *SendMessageNodeFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	return NewSendMessageNode(node, f.deps)
}

// ID returns the factory ID.
func (f *SendMessageNodeFactory) ID() models.NodeType {
	return models.NodeTypeSendMessage
}

// Name returns the factory name.
func (f *SendMessageNodeFactory) Name() string {
	return "Send message"
}

// Description returns the factory description.
func (f *SendMessageNodeFactory) Description() string {
	return "Sends a text message to the contact, or media attachments with the text as caption. Supports {{variable}} placeholders."
}

// Schema returns the JSON schema for send_message node data.
func (f *SendMessageNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {{variable}} placeholders.",
				"examples": []string{
					"Hi {{name}}, thanks for reaching out!",
					"Your order {{trigger.order_id}} has shipped.",
				},
			},
			"media": map[string]any{
				"type":        "array",
				"description": "Media attachments sent instead of a plain text message",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{"image", "video", "audio", "document"},
						},
						"url":      map[string]any{"type": "string"},
						"filename": map[string]any{"type": "string"},
					},
					"required": []string{"type", "url"},
				},
			},
		},
		"anyOf": []map[string]any{
			{"required": []string{"message"}},
			{"required": []string{"media"}},
		},
	}
}

// NewSendMessageNodeFactory creates a new factory instance.
func NewSendMessageNodeFactory(deps protocol.Dependencies) protocol.NodeFactory {
	return &SendMessageNodeFactory{deps: deps}
}
