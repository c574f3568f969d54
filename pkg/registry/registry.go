// Package registry keeps the node factories the engine can instantiate and
// validates automation graphs against them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// ErrNodeTypeNotRegistered is returned for nodes whose type has no factory.
var ErrNodeTypeNotRegistered = errors.New("node type not registered")

type Registry struct {
	logger        *slog.Logger
	mu            sync.RWMutex
	nodeFactories map[models.NodeType]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log.With("module", "registry"),
		nodeFactories: make(map[models.NodeType]protocol.NodeFactory),
	}
}

// RegisterNode adds factory, replacing any factory with the same ID.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeFactories[factory.ID()] = factory
	r.logger.Debug("Registered node factory", "node_type", factory.ID())
}

// GetNodeFactory returns the factory registered for nodeType.
func (r *Registry) GetNodeFactory(nodeType models.NodeType) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}

// GetAvailableNodes returns every registered factory ordered by node type.
func (r *Registry) GetAvailableNodes() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool { return factories[i].ID() < factories[j].ID() })

	return factories
}

// CreateNode validates node against its factory schema and instantiates it.
func (r *Registry) CreateNode(ctx context.Context, node *models.Node) (protocol.Node, error) {
	factory, err := r.factoryFor(node)
	if err != nil {
		return nil, err
	}

	err = validateSchema(factory.Schema(), node)
	if err != nil {
		return nil, err
	}

	instance, err := factory.Create(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s node %s: %w", node.Type, node.ID, err)
	}

	return instance, nil
}

// ValidateNode checks node against its factory schema and typed payload rules.
func (r *Registry) ValidateNode(node *models.Node) error {
	factory, err := r.factoryFor(node)
	if err != nil {
		return err
	}

	err = validateSchema(factory.Schema(), node)
	if err != nil {
		return err
	}

	_, err = models.DecodeNodeData(node)

	return err
}

// ValidateAutomation reports every problem of the automation graph: invalid
// nodes, duplicate node ids, edges to unknown nodes and a missing start node.
func (r *Registry) ValidateAutomation(automation *models.Automation) error {
	var problems []error

	seen := make(map[string]bool, len(automation.Nodes))

	for _, node := range automation.Nodes {
		if node == nil {
			problems = append(problems, errors.New("automation contains a nil node"))

			continue
		}

		if seen[node.ID] {
			problems = append(problems, fmt.Errorf("duplicate node id %q", node.ID))
		}

		seen[node.ID] = true

		err := r.ValidateNode(node)
		if err != nil {
			problems = append(problems, err)
		}
	}

	for _, edge := range automation.Edges {
		if !seen[edge.SourceNodeID] {
			problems = append(problems, fmt.Errorf("edge %s references unknown source node %q", edge.ID, edge.SourceNodeID))
		}

		if !seen[edge.TargetNodeID] {
			problems = append(problems, fmt.Errorf("edge %s references unknown target node %q", edge.ID, edge.TargetNodeID))
		}
	}

	if len(automation.Nodes) > 0 && automation.StartNode() == nil {
		problems = append(problems, errors.New("no start node: every node has an incoming edge"))
	}

	return errors.Join(problems...)
}

func (r *Registry) factoryFor(node *models.Node) (protocol.NodeFactory, error) {
	factory, ok := r.GetNodeFactory(node.Type)
	if !ok {
		return nil, fmt.Errorf("%w: node %s has type %q", ErrNodeTypeNotRegistered, node.ID, node.Type)
	}

	return factory, nil
}

func validateSchema(schema map[string]any, node *models.Node) error {
	data := node.Data
	if data == nil {
		data = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s node %s: %w", node.Type, node.ID, err)
	}

	if !result.Valid() {
		var errs []string
		for _, resultErr := range result.Errors() {
			errs = append(errs, resultErr.String())
		}

		return fmt.Errorf("%s node %s: schema validation failed: %s", node.Type, node.ID, strings.Join(errs, "; "))
	}

	return nil
}
