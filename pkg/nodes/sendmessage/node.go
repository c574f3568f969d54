// Package sendmessage provides the send_message node implementation.
package sendmessage

import (
	"context"
	"fmt"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/template"
)

// SendMessageNode sends a text or media message to the execution's contact.
type SendMessageNode struct {
	id   string
	data *models.SendMessageData
	deps protocol.Dependencies
}

// NewSendMessageNode creates a new send_message node.
func NewSendMessageNode(node *models.Node, deps protocol.Dependencies) (*SendMessageNode, error) {
	data, err := nodes.Decode[models.SendMessageData](node)
	if err != nil {
		return nil, err
	}

	return &SendMessageNode{id: node.ID, data: data, deps: deps}, nil
}

// ID returns the node ID.
func (n *SendMessageNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *SendMessageNode) Type() models.NodeType {
	return models.NodeTypeSendMessage
}

// Execute sends the message. With media attachments one media message is sent
// per attachment and the text travels as the caption of the first one.
func (n *SendMessageNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (*models.NodeOutcome, error) {
	contact, err := nodes.ResolveContact(ctx, n.deps, execCtx, n.id)
	if err != nil {
		return nil, err
	}

	channelID := nodes.ChannelID(execCtx, contact)
	text := template.RenderWithContext(n.data.Message, execCtx)

	if len(n.data.Media) == 0 {
		messageID, err := n.deps.Gateway.SendText(ctx, contact.Phone, text, channelID)
		if err != nil {
			return nil, fmt.Errorf("failed to send message: %w", err)
		}

		nodes.RecordOutbound(ctx, n.deps, execCtx, channelID, messageID, text)

		return &models.NodeOutcome{Output: map[string]any{
			"message":    text,
			"message_id": messageID,
		}}, nil
	}

	messageIDs := make([]string, 0, len(n.data.Media))

	for i, media := range n.data.Media {
		media.URL = template.RenderWithContext(media.URL, execCtx)

		caption := ""
		if i == 0 {
			caption = text
		}

		messageID, err := n.deps.Gateway.SendMedia(ctx, contact.Phone, media, caption, channelID)
		if err != nil {
			return nil, fmt.Errorf("failed to send %s attachment %d: %w", media.Type, i+1, err)
		}

		messageIDs = append(messageIDs, messageID)
	}

	preview := text
	if preview == "" {
		preview = "[" + n.data.Media[0].Type + "]"
	}

	nodes.RecordOutbound(ctx, n.deps, execCtx, channelID, messageIDs[0], preview)

	return &models.NodeOutcome{Output: map[string]any{
		"message":     text,
		"message_id":  messageIDs[0],
		"message_ids": messageIDs,
		"media_count": len(messageIDs),
	}}, nil
}
