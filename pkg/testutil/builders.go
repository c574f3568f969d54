// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestAutomation creates an active new_conversation automation with no
// nodes. Overrides are applied in order.
func CreateTestAutomation(overrides ...func(*models.Automation)) *models.Automation {
	now := time.Now().UTC()

	automation := &models.Automation{
		ID:        uuid.NewString(),
		ChannelID: "channel-1",
		Name:      "Test Automation",
		Trigger:   models.TriggerNewConversation,
		Status:    models.AutomationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(automation)
	}

	return automation
}

// WithNodes appends nodes to the automation.
func WithNodes(nodes ...*models.Node) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Nodes = append(a.Nodes, nodes...)
	}
}

// WithEdge appends an edge from source to target.
func WithEdge(source, target string) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Edges = append(a.Edges, &models.Edge{
			ID:           source + "->" + target,
			SourceNodeID: source,
			TargetNodeID: target,
		})
	}
}

// WithChain links the given node ids in order.
func WithChain(nodeIDs ...string) func(*models.Automation) {
	return func(a *models.Automation) {
		for i := 1; i < len(nodeIDs); i++ {
			WithEdge(nodeIDs[i-1], nodeIDs[i])(a)
		}
	}
}

// WithTrigger sets the trigger kind and optional keywords.
func WithTrigger(trigger models.TriggerKind, keywords ...string) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Trigger = trigger
		a.TriggerKeywords = keywords
	}
}

// WithStatus sets the activation status.
func WithStatus(status models.AutomationStatus) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Status = status
	}
}

// CreateTestNode creates a node of the given type and payload.
func CreateTestNode(id string, nodeType models.NodeType, data map[string]any) *models.Node {
	return &models.Node{ID: id, Type: nodeType, Name: id, Data: data}
}

func SendMessageNode(id, message string) *models.Node {
	return CreateTestNode(id, models.NodeTypeSendMessage, map[string]any{"message": message})
}

func AskQuestionNode(id, question, saveAs string, buttons ...models.Button) *models.Node {
	data := map[string]any{"question": question, "saveAs": saveAs}

	if len(buttons) > 0 {
		list := make([]any, len(buttons))
		for i, button := range buttons {
			list[i] = map[string]any{"id": button.ID, "text": button.Text}
		}

		data["buttons"] = list
	}

	return CreateTestNode(id, models.NodeTypeAskQuestion, data)
}

func DelayNode(id string, seconds int) *models.Node {
	return CreateTestNode(id, models.NodeTypeDelay, map[string]any{"seconds": seconds})
}

func SendTemplateNode(id, templateID string, params ...string) *models.Node {
	list := make([]any, len(params))
	for i, param := range params {
		list[i] = param
	}

	return CreateTestNode(id, models.NodeTypeSendTemplate, map[string]any{"templateId": templateID, "params": list})
}

func AssignToHumanNode(id, assigneeID string) *models.Node {
	return CreateTestNode(id, models.NodeTypeAssignToHuman, map[string]any{"assigneeId": assigneeID})
}

func KeywordConditionNode(id string, matchType models.MatchType, keywords ...string) *models.Node {
	list := make([]any, len(keywords))
	for i, keyword := range keywords {
		list[i] = keyword
	}

	return CreateTestNode(id, models.NodeTypeCondition, map[string]any{
		"conditionType": string(models.ConditionKeyword),
		"matchType":     string(matchType),
		"values":        list,
	})
}

// CreateTestExecution creates a running execution for automation.
func CreateTestExecution(automation *models.Automation, overrides ...func(*models.Execution)) *models.Execution {
	now := time.Now().UTC()

	execution := &models.Execution{
		ID:             uuid.NewString(),
		AutomationID:   automation.ID,
		ContactID:      "contact-1",
		ConversationID: "conversation-1",
		ChannelID:      automation.ChannelID,
		Status:         models.ExecutionRunning,
		Variables:      map[string]any{},
		TriggerData:    map[string]any{},
		StartedAt:      now,
		UpdatedAt:      now,
	}

	for _, override := range overrides {
		override(execution)
	}

	return execution
}
