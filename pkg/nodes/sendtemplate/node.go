// Package sendtemplate provides the send_template node implementation.
package sendtemplate

import (
	"context"
	"fmt"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/template"
)

// SendTemplateNode sends a channel template to the contact.
type SendTemplateNode struct {
	id   string
	data *models.SendTemplateData
	deps protocol.Dependencies
}

// NewSendTemplateNode creates a new send_template node.
func NewSendTemplateNode(node *models.Node, deps protocol.Dependencies) (*SendTemplateNode, error) {
	data, err := nodes.Decode[models.SendTemplateData](node)
	if err != nil {
		return nil, err
	}

	return &SendTemplateNode{id: node.ID, data: data, deps: deps}, nil
}

// ID returns the node ID.
func (n *SendTemplateNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *SendTemplateNode) Type() models.NodeType {
	return models.NodeTypeSendTemplate
}

// Execute resolves the template in the contact's channel and sends it.
func (n *SendTemplateNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (*models.NodeOutcome, error) {
	contact, err := nodes.ResolveContact(ctx, n.deps, execCtx, n.id)
	if err != nil {
		return nil, err
	}

	if contact.ChannelID == "" {
		return nil, nodes.NewConfigurationError(n.id, "contact %s has no channel", contact.ID)
	}

	tmpl, err := n.deps.Templates.FindTemplate(ctx, n.data.TemplateID, contact.ChannelID)
	if err != nil {
		return nil, nodes.NewConfigurationError(n.id, "template %s not found in channel %s: %v",
			n.data.TemplateID, contact.ChannelID, err)
	}

	if tmpl.ChannelID != "" && tmpl.ChannelID != contact.ChannelID {
		return nil, nodes.NewConfigurationError(n.id, "template %s does not belong to channel %s",
			tmpl.ID, contact.ChannelID)
	}

	params := template.InterpolateAll(n.data.Params, template.Scope(execCtx))

	messageID, err := n.deps.Gateway.SendTemplate(ctx, contact.Phone, tmpl.Name, params, contact.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to send template %s: %w", tmpl.Name, err)
	}

	nodes.RecordOutbound(ctx, n.deps, execCtx, contact.ChannelID, messageID, "[template] "+tmpl.Name)

	return &models.NodeOutcome{Output: map[string]any{
		"template_id":   tmpl.ID,
		"template_name": tmpl.Name,
		"params":        params,
		"message_id":    messageID,
	}}, nil
}
