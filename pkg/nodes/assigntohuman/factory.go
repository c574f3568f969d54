// Package assigntohuman provides the assign_to_human node factory for registry integration.
package assigntohuman

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// AssignToHumanNodeFactory creates AssignToHumanNode instances.
type AssignToHumanNodeFactory struct {
	deps protocol.Dependencies
}

// Create creates a new AssignToHumanNode instance.
func (f *AssignToHumanNodeFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	return NewAssignToHumanNode(node, f.deps)
}

// ID returns the factory ID.
func (f *AssignToHumanNodeFactory) ID() models.NodeType {
	return models.NodeTypeAssignToHuman
}

// Name returns the factory name.
func (f *AssignToHumanNodeFactory) Name() string {
	return "Assign to human"
}

// Description returns the factory description.
func (f *AssignToHumanNodeFactory) Description() string {
	return "Hands the conversation over to an agent by setting its assignee and status"
}

// Schema returns the JSON schema for assign_to_human node data.
func (f *AssignToHumanNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assigneeId": map[string]any{
				"type":        "string",
				"description": "Agent id that takes over the conversation",
			},
			"status": map[string]any{
				"type":        "string",
				"description": "Conversation status after assignment",
				"enum":        []string{"open", "assigned", "closed"},
				"default":     "assigned",
			},
		},
		"required": []string{"assigneeId"},
	}
}

// NewAssignToHumanNodeFactory creates a new factory instance.
func NewAssignToHumanNodeFactory(deps protocol.Dependencies) protocol.NodeFactory {
	return &AssignToHumanNodeFactory{deps: deps}
}
