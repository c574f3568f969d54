// Package assigntohuman provides the assign_to_human node implementation.
package assigntohuman

import (
	"context"
	"fmt"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/template"
)

// AssignToHumanNode assigns the execution's conversation to an agent.
type AssignToHumanNode struct {
	id     string
	data   *models.AssignToHumanData
	status models.ConversationStatus
	deps   protocol.Dependencies
}

// NewAssignToHumanNode creates a new assign_to_human node.
func NewAssignToHumanNode(node *models.Node, deps protocol.Dependencies) (*AssignToHumanNode, error) {
	data, err := nodes.Decode[models.AssignToHumanData](node)
	if err != nil {
		return nil, err
	}

	status := models.ConversationAssigned
	if data.Status != "" {
		status = models.ConversationStatus(data.Status)
	}

	switch status {
	case models.ConversationOpen, models.ConversationAssigned, models.ConversationClosed:
	default:
		return nil, nodes.NewConfigurationError(node.ID, "invalid conversation status %q", data.Status)
	}

	return &AssignToHumanNode{id: node.ID, data: data, status: status, deps: deps}, nil
}

// ID returns the node ID.
func (n *AssignToHumanNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *AssignToHumanNode) Type() models.NodeType {
	return models.NodeTypeAssignToHuman
}

// Execute updates the conversation's assignee and status.
func (n *AssignToHumanNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (*models.NodeOutcome, error) {
	if execCtx.ConversationID == "" {
		return nil, nodes.NewConfigurationError(n.id, "execution has no conversation")
	}

	assignee := template.RenderWithContext(n.data.AssigneeID, execCtx)
	if assignee == "" {
		return nil, nodes.NewConfigurationError(n.id, "assignee id is empty")
	}

	_, err := n.deps.Conversations.GetConversation(ctx, execCtx.ConversationID)
	if err != nil {
		return nil, nodes.NewConfigurationError(n.id, "conversation %s not found: %v", execCtx.ConversationID, err)
	}

	status := n.status

	err = n.deps.Conversations.UpdateConversation(ctx, execCtx.ConversationID, models.ConversationUpdate{
		AssignedTo: &assignee,
		Status:     &status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign conversation %s: %w", execCtx.ConversationID, err)
	}

	return &models.NodeOutcome{Output: map[string]any{
		"conversation_id": execCtx.ConversationID,
		"assigned_to":     assignee,
		"status":          string(status),
	}}, nil
}
