// Package protocol defines the interfaces and contracts for pluggable nodes
// and the collaborators node executors talk to.
package protocol

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
)

// Node is an executable instance of an automation node.
type Node interface {
	ID() string
	Type() models.NodeType

	// Execute runs the node against the execution context. Executors may
	// write into execCtx.Variables; the engine persists the bag afterwards.
	Execute(ctx context.Context, execCtx *models.ExecutionContext) (*models.NodeOutcome, error)
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance from its definition
	Create(ctx context.Context, node *models.Node) (Node, error)

	// ID returns the node type this factory builds
	ID() models.NodeType

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema of the node's data payload
	Schema() map[string]any
}
