// Package askquestion provides the ask_question node implementation.
package askquestion

import (
	"context"
	"fmt"

	"github.com/dukex/convoflow/pkg/log"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/template"
	"github.com/google/uuid"
)

// AskQuestionNode sends a question and parks the execution until the
// contact replies.
type AskQuestionNode struct {
	id   string
	data *models.AskQuestionData
	deps protocol.Dependencies
}

// NewAskQuestionNode creates a new ask_question node.
func NewAskQuestionNode(node *models.Node, deps protocol.Dependencies) (*AskQuestionNode, error) {
	data, err := nodes.Decode[models.AskQuestionData](node)
	if err != nil {
		return nil, err
	}

	return &AskQuestionNode{id: node.ID, data: data, deps: deps}, nil
}

// ID returns the node ID.
func (n *AskQuestionNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *AskQuestionNode) Type() models.NodeType {
	return models.NodeTypeAskQuestion
}

// Execute registers the pending wait first and only then sends the question,
// so a fast reply always finds the wait. A failed send removes the wait again.
func (n *AskQuestionNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (*models.NodeOutcome, error) {
	if execCtx.ConversationID == "" {
		return nil, nodes.NewConfigurationError(n.id, "a conversation is required to wait for an answer")
	}

	contact, err := nodes.ResolveContact(ctx, n.deps, execCtx, n.id)
	if err != nil {
		return nil, err
	}

	channelID := nodes.ChannelID(execCtx, contact)
	question := template.RenderWithContext(n.data.Question, execCtx)

	buttons := make([]models.Button, len(n.data.Buttons))
	for i, button := range n.data.Buttons {
		buttons[i] = models.Button{ID: button.ID, Text: template.RenderWithContext(button.Text, execCtx)}
	}

	wait := &models.PendingWait{
		ID:             uuid.NewString(),
		ExecutionID:    execCtx.ID,
		AutomationID:   execCtx.AutomationID,
		NodeID:         n.id,
		ConversationID: execCtx.ConversationID,
		ContactID:      execCtx.ContactID,
		ChannelID:      channelID,
		Variables:      execCtx.CloneVariables(),
		SaveAs:         n.data.SaveAs,
		Buttons:        buttons,
		CreatedAt:      n.deps.Clock(),
	}

	err = n.deps.Waits.Register(ctx, wait)
	if err != nil {
		return nil, fmt.Errorf("failed to register pending wait: %w", err)
	}

	var messageID string
	if len(buttons) > 0 {
		messageID, err = n.deps.Gateway.SendInteractive(ctx, contact.Phone, question, buttons, channelID)
	} else {
		messageID, err = n.deps.Gateway.SendText(ctx, contact.Phone, question, channelID)
	}

	if err != nil {
		removeErr := n.deps.Waits.Remove(ctx, execCtx.ConversationID)
		if removeErr != nil {
			log.FromContext(ctx).WarnContext(ctx, "Failed to remove pending wait after send failure",
				"conversation_id", execCtx.ConversationID, "error", removeErr)
		}

		return nil, fmt.Errorf("failed to send question: %w", err)
	}

	nodes.RecordOutbound(ctx, n.deps, execCtx, channelID, messageID, question)

	return &models.NodeOutcome{
		Output: map[string]any{
			"question":        question,
			"message_id":      messageID,
			"save_as":         n.data.SaveAs,
			"buttons":         len(buttons),
			"pending_wait_id": wait.ID,
		},
		Suspend: models.SuspendForResponse,
	}, nil
}
