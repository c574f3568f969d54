// Package delay provides the delay node implementation.
package delay

import (
	"context"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
)

// DelayNode asks the engine to continue after a fixed duration. It never
// blocks; the engine owns the timer.
type DelayNode struct {
	id      string
	seconds int
}

// NewDelayNode creates a new delay node.
func NewDelayNode(node *models.Node) (*DelayNode, error) {
	data, err := nodes.Decode[models.DelayData](node)
	if err != nil {
		return nil, err
	}

	return &DelayNode{id: node.ID, seconds: data.Seconds}, nil
}

// ID returns the node ID.
func (n *DelayNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *DelayNode) Type() models.NodeType {
	return models.NodeTypeDelay
}

// Execute returns a timer suspension. Zero seconds continues immediately.
func (n *DelayNode) Execute(_ context.Context, _ *models.ExecutionContext) (*models.NodeOutcome, error) {
	output := map[string]any{"seconds": n.seconds}

	if n.seconds <= 0 {
		return &models.NodeOutcome{Output: output}, nil
	}

	return &models.NodeOutcome{
		Output:  output,
		Suspend: models.SuspendForTimer,
		Delay:   time.Duration(n.seconds) * time.Second,
	}, nil
}
