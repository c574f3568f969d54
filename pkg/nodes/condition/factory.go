// Package condition provides the condition node factory for registry integration.
package condition

import (
	"context"

	"github.com/dukex/convoflow/pkg/conditions"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// ConditionNodeFactory creates ConditionNode instances. All nodes it creates
// share one evaluator, and with it the compiled pattern cache.
type ConditionNodeFactory struct {
	evaluator *conditions.Evaluator
}

// Create creates a new ConditionNode instance.
func (f *ConditionNodeFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	return NewConditionNode(node, f.evaluator)
}

// ID returns the factory ID.
func (f *ConditionNodeFactory) ID() models.NodeType {
	return models.NodeTypeCondition
}

// Name returns the factory name.
func (f *ConditionNodeFactory) Name() string {
	return "Condition"
}

// Description returns the factory description.
func (f *ConditionNodeFactory) Description() string {
	return "Branches on the last user message or on variables. The first outgoing edge is taken when the condition holds, the second otherwise."
}

// Schema returns the JSON schema for condition node data.
func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conditionType": map[string]any{
				"type":        "string",
				"description": "Matching strategy",
				"enum":        []string{"keyword", "regex", "variable", "expression"},
			},
			"matchType": map[string]any{
				"type":        "string",
				"description": "Keyword matching mode",
				"enum":        []string{"any", "all", "exact"},
				"default":     "any",
			},
			"values": map[string]any{
				"type":        "array",
				"description": "Keywords, or a single pattern or expression",
				"items":       map[string]any{"type": "string"},
				"examples": [][]string{
					{"refund", "cancel"},
					{`^order\s+\d+$`},
					{"{{plan}} === premium"},
					{`lastUserMessage startsWith "hi" && attempts < 3`},
				},
			},
		},
		"required": []string{"conditionType", "values"},
	}
}

// NewConditionNodeFactory creates a new factory instance.
func NewConditionNodeFactory() protocol.NodeFactory {
	return &ConditionNodeFactory{evaluator: conditions.NewEvaluator()}
}
