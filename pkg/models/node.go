package models

import "time"

// NodeType tags the behaviour of a node.
type NodeType string

const (
	NodeTypeSendMessage   NodeType = "send_message"
	NodeTypeAskQuestion   NodeType = "ask_question"
	NodeTypeDelay         NodeType = "delay"
	NodeTypeSendTemplate  NodeType = "send_template"
	NodeTypeAssignToHuman NodeType = "assign_to_human"
	NodeTypeCondition     NodeType = "condition"
)

// NodeTypes lists every node type the engine knows how to execute.
var NodeTypes = []NodeType{
	NodeTypeSendMessage,
	NodeTypeAskQuestion,
	NodeTypeDelay,
	NodeTypeSendTemplate,
	NodeTypeAssignToHuman,
	NodeTypeCondition,
}

// Node is a vertex of an automation graph. Data is the free-form payload
// produced by the editor; its shape depends on Type (see DecodeNodeData).
type Node struct {
	ID   string         `json:"id"             validate:"required"`
	Type NodeType       `json:"type"           validate:"required"`
	Name string         `json:"name,omitempty"`
	Data map[string]any `json:"data"`
}

// SuspendKind describes why a node stopped the walk.
type SuspendKind string

const (
	SuspendNone        SuspendKind = ""
	SuspendForResponse SuspendKind = "response"
	SuspendForTimer    SuspendKind = "timer"
)

// NodeOutcome is what a node executor hands back to the graph walker.
type NodeOutcome struct {
	Output  map[string]any
	Suspend SuspendKind
	// Delay is set together with SuspendForTimer.
	Delay time.Duration
	// Branch is set by condition nodes; nil for every other node type.
	Branch *bool
}

// Suspended reports whether the walk must stop after this node.
func (o *NodeOutcome) Suspended() bool {
	return o != nil && o.Suspend != SuspendNone
}
