// Package condition provides the condition node implementation.
package condition

import (
	"context"

	"github.com/dukex/convoflow/pkg/conditions"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
)

// ConditionNode evaluates its predicate against the last user message and
// reports the branch to follow.
type ConditionNode struct {
	id        string
	data      *models.ConditionData
	evaluator *conditions.Evaluator
}

// NewConditionNode creates a new condition node.
func NewConditionNode(node *models.Node, evaluator *conditions.Evaluator) (*ConditionNode, error) {
	data, err := nodes.Decode[models.ConditionData](node)
	if err != nil {
		return nil, err
	}

	if evaluator == nil {
		evaluator = conditions.NewEvaluator()
	}

	return &ConditionNode{id: node.ID, data: data, evaluator: evaluator}, nil
}

// ID returns the node ID.
func (n *ConditionNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ConditionNode) Type() models.NodeType {
	return models.NodeTypeCondition
}

// Execute stores lastConditionResult and matchedKeyword in the variable bag.
// It never fails: broken patterns evaluate as not met.
func (n *ConditionNode) Execute(_ context.Context, execCtx *models.ExecutionContext) (*models.NodeOutcome, error) {
	message := execCtx.StringVariable(models.VarLastUserMessage)
	result := n.evaluator.Evaluate(n.data, message, execCtx.Variables)

	execCtx.SetVariable(models.VarLastConditionResult, result.ConditionMet)
	execCtx.SetVariable(models.VarMatchedKeyword, result.MatchedKeyword)

	branch := result.ConditionMet

	return &models.NodeOutcome{
		Output: map[string]any{
			"conditionType":  string(n.data.ConditionType),
			"conditionMet":   result.ConditionMet,
			"matchedKeyword": result.MatchedKeyword,
		},
		Branch: &branch,
	}, nil
}
