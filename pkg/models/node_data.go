package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownNodeType is returned when a node carries a type tag the engine does not support.
var ErrUnknownNodeType = errors.New("unknown node type")

var validate = validator.New(validator.WithRequiredStructEnabled())

// NodeData is the closed set of typed node payloads.
type NodeData interface {
	NodeType() NodeType
	nodeData()
}

// Button is a quick-reply option attached to a question.
type Button struct {
	ID   string `json:"id"   validate:"required"`
	Text string `json:"text" validate:"required"`
}

// MediaAttachment references a media file to send with a message.
type MediaAttachment struct {
	Type     string `json:"type"               validate:"required,oneof=image video audio document"`
	URL      string `json:"url"                validate:"required,url"`
	Filename string `json:"filename,omitempty"`
}

type SendMessageData struct {
	Message string            `json:"message" validate:"required_without=Media"`
	Media   []MediaAttachment `json:"media,omitempty" validate:"omitempty,dive"`
}

type AskQuestionData struct {
	Question string   `json:"question"          validate:"required"`
	SaveAs   string   `json:"saveAs,omitempty"`
	Buttons  []Button `json:"buttons,omitempty" validate:"omitempty,max=10,dive"`
}

// MaxDelaySeconds caps delay nodes at one year.
const MaxDelaySeconds = 365 * 24 * 60 * 60

type DelayData struct {
	Seconds int `json:"seconds" validate:"gte=0,lte=31536000"`
}

type SendTemplateData struct {
	TemplateID string   `json:"templateId"       validate:"required"`
	Params     []string `json:"params,omitempty"`
}

type AssignToHumanData struct {
	AssigneeID string `json:"assigneeId"       validate:"required"`
	Status     string `json:"status,omitempty"`
}

// ConditionType selects the matching strategy of a condition node.
type ConditionType string

const (
	ConditionKeyword    ConditionType = "keyword"
	ConditionRegex      ConditionType = "regex"
	ConditionVariable   ConditionType = "variable"
	ConditionExpression ConditionType = "expression"
)

// MatchType refines keyword conditions.
type MatchType string

const (
	MatchAny   MatchType = "any"
	MatchAll   MatchType = "all"
	MatchExact MatchType = "exact"
)

type ConditionData struct {
	ConditionType ConditionType `json:"conditionType"       validate:"required"`
	MatchType     MatchType     `json:"matchType,omitempty"`
	Values        []string      `json:"values"`
}

func (SendMessageData) NodeType() NodeType   { return NodeTypeSendMessage }
func (AskQuestionData) NodeType() NodeType   { return NodeTypeAskQuestion }
func (DelayData) NodeType() NodeType         { return NodeTypeDelay }
func (SendTemplateData) NodeType() NodeType  { return NodeTypeSendTemplate }
func (AssignToHumanData) NodeType() NodeType { return NodeTypeAssignToHuman }
func (ConditionData) NodeType() NodeType     { return NodeTypeCondition }

func (SendMessageData) nodeData()   {}
func (AskQuestionData) nodeData()   {}
func (DelayData) nodeData()         {}
func (SendTemplateData) nodeData()  {}
func (AssignToHumanData) nodeData() {}
func (ConditionData) nodeData()     {}

// DecodeNodeData converts the free-form payload of a node into its typed form
// and validates it.
func DecodeNodeData(node *Node) (NodeData, error) {
	var target NodeData

	switch node.Type {
	case NodeTypeSendMessage:
		target = &SendMessageData{}
	case NodeTypeAskQuestion:
		target = &AskQuestionData{}
	case NodeTypeDelay:
		target = &DelayData{}
	case NodeTypeSendTemplate:
		target = &SendTemplateData{}
	case NodeTypeAssignToHuman:
		target = &AssignToHumanData{}
	case NodeTypeCondition:
		target = &ConditionData{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, node.Type)
	}

	raw, err := json.Marshal(node.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data of node %s: %w", node.ID, err)
	}

	err = json.Unmarshal(raw, target)
	if err != nil {
		return nil, fmt.Errorf("invalid data for %s node %s: %w", node.Type, node.ID, err)
	}

	err = validate.Struct(target)
	if err != nil {
		return nil, fmt.Errorf("invalid data for %s node %s: %w", node.Type, node.ID, err)
	}

	return target, nil
}
