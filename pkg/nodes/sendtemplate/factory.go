// Package sendtemplate provides the send_template node factory for registry integration.
package sendtemplate

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// SendTemplateNodeFactory creates SendTemplateNode instances.
type SendTemplateNodeFactory struct {
	deps protocol.Dependencies
}

// Create creates a new SendTemplateNode instance.
func (f *SendTemplateNodeFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	return NewSendTemplateNode(node, f.deps)
}

// ID returns the factory ID.
func (f *SendTemplateNodeFactory) ID() models.NodeType {
	return models.NodeTypeSendTemplate
}

// Name returns the factory name.
func (f *SendTemplateNodeFactory) Name() string {
	return "Send template"
}

// Description returns the factory description.
func (f *SendTemplateNodeFactory) Description() string {
	return "Sends an approved WhatsApp template owned by the contact's channel, with interpolated parameters"
}

// Schema returns the JSON schema for send_template node data.
func (f *SendTemplateNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"templateId": map[string]any{
				"type":        "string",
				"description": "Template id; the template must belong to the contact's channel",
			},
			"params": map[string]any{
				"type":        "array",
				"description": "Body parameters in order. Supports {{variable}} placeholders.",
				"items":       map[string]any{"type": "string"},
				"examples":    [][]string{{"{{name}}", "{{trigger.order_id}}"}},
			},
		},
		"required": []string{"templateId"},
	}
}

// NewSendTemplateNodeFactory creates a new factory instance.
func NewSendTemplateNodeFactory(deps protocol.Dependencies) protocol.NodeFactory {
	return &SendTemplateNodeFactory{deps: deps}
}
