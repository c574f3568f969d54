// Package models defines the core domain models for conversational automations.
package models

import (
	"strings"
	"time"
)

// TriggerKind is the external event class that starts an automation.
type TriggerKind string

const (
	TriggerNewConversation TriggerKind = "new_conversation"
	TriggerMessageReceived TriggerKind = "message_received"
)

// AutomationStatus represents the activation state of an automation.
type AutomationStatus string

const (
	AutomationStatusActive   AutomationStatus = "active"
	AutomationStatusInactive AutomationStatus = "inactive"
)

// Automation is a named graph of nodes and edges belonging to a channel.
type Automation struct {
	ID              string           `json:"id"                         validate:"required"`
	ChannelID       string           `json:"channel_id"                 validate:"required"`
	Name            string           `json:"name"                       validate:"required,min=1"`
	Trigger         TriggerKind      `json:"trigger"                    validate:"required,oneof=new_conversation message_received"`
	TriggerKeywords []string         `json:"trigger_keywords,omitempty"`
	Status          AutomationStatus `json:"status"                     validate:"required,oneof=active inactive"`
	Nodes           []*Node          `json:"nodes"`
	Edges           []*Edge          `json:"edges"`
	ExecutionCount  int64            `json:"execution_count"`
	LastExecutedAt  *time.Time       `json:"last_executed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Edge is a directed connection between two nodes of the same automation.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
}

// IsActive reports whether the automation can be started by triggers.
func (a *Automation) IsActive() bool {
	return a.Status == AutomationStatusActive
}

// NodeByID returns the node with the given id, or nil.
func (a *Automation) NodeByID(nodeID string) *Node {
	for _, node := range a.Nodes {
		if node.ID == nodeID {
			return node
		}
	}

	return nil
}

// OutgoingEdges returns the edges leaving nodeID in declaration order.
// Order is significant for condition nodes: the first edge is the
// "condition met" path and the second the "condition not met" path.
func (a *Automation) OutgoingEdges(nodeID string) []*Edge {
	edges := make([]*Edge, 0, 2)

	for _, edge := range a.Edges {
		if edge.SourceNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// IncomingEdges returns the edges entering nodeID.
func (a *Automation) IncomingEdges(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range a.Edges {
		if edge.TargetNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// StartNode returns the first node, in declaration order, that has no
// incoming edge. It returns nil when every node is the target of an edge.
func (a *Automation) StartNode() *Node {
	targets := make(map[string]struct{}, len(a.Edges))
	for _, edge := range a.Edges {
		targets[edge.TargetNodeID] = struct{}{}
	}

	for _, node := range a.Nodes {
		if _, ok := targets[node.ID]; !ok {
			return node
		}
	}

	return nil
}

// MatchesMessage reports whether a message_received automation should start
// for the given text. Automations without trigger keywords match every message.
func (a *Automation) MatchesMessage(text string) bool {
	if len(a.TriggerKeywords) == 0 {
		return true
	}

	lowered := strings.ToLower(text)
	for _, keyword := range a.TriggerKeywords {
		if keyword != "" && strings.Contains(lowered, strings.ToLower(strings.TrimSpace(keyword))) {
			return true
		}
	}

	return false
}
