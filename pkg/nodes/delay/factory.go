// Package delay provides the delay node factory for registry integration.
package delay

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// DelayNodeFactory creates DelayNode instances.
type DelayNodeFactory struct{}

// Create creates a new DelayNode instance.
func (f *DelayNodeFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	return NewDelayNode(node)
}

// ID returns the factory ID.
func (f *DelayNodeFactory) ID() models.NodeType {
	return models.NodeTypeDelay
}

// Name returns the factory name.
func (f *DelayNodeFactory) Name() string {
	return "Delay"
}

// Description returns the factory description.
func (f *DelayNodeFactory) Description() string {
	return "Pauses the automation for a number of seconds before continuing with the next node"
}

// Schema returns the JSON schema for delay node data.
func (f *DelayNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seconds": map[string]any{
				"type":        "integer",
				"description": "Seconds to wait",
				"minimum":     0,
				"maximum":     models.MaxDelaySeconds,
				"examples":    []int{5, 60, 3600},
			},
		},
		"required": []string{"seconds"},
	}
}

// NewDelayNodeFactory creates a new factory instance.
func NewDelayNodeFactory() protocol.NodeFactory {
	return &DelayNodeFactory{}
}
