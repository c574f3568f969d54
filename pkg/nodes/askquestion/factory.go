// Package askquestion provides the ask_question node factory for registry integration.
package askquestion

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// AskQuestionNodeFactory creates AskQuestionNode instances.
type AskQuestionNodeFactory struct {
	deps protocol.Dependencies
}

// Create creates a new AskQuestionNode instance.
func (f *AskQuestionNodeFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	return NewAskQuestionNode(node, f.deps)
}

// ID returns the factory ID.
func (f *AskQuestionNodeFactory) ID() models.NodeType {
	return models.NodeTypeAskQuestion
}

// Name returns the factory name.
func (f *AskQuestionNodeFactory) Name() string {
	return "Ask question"
}

// Description returns the factory description.
func (f *AskQuestionNodeFactory) Description() string {
	return "Sends a question, optionally with reply buttons, and pauses the automation until the contact answers. The answer is saved into a variable."
}

// Schema returns the JSON schema for ask_question node data.
func (f *AskQuestionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "Question text. Supports {{variable}} placeholders.",
				"examples":    []string{"What is your name?", "{{name}}, did we solve your problem?"},
			},
			"saveAs": map[string]any{
				"type":        "string",
				"description": "Variable that receives the answer; the chosen button id goes to <saveAs>_button_id",
				"examples":    []string{"name", "satisfied"},
			},
			"buttons": map[string]any{
				"type":        "array",
				"description": "Reply buttons. Free-text answers are matched by text, 1-based index or substring.",
				"maxItems":    10,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":   map[string]any{"type": "string"},
						"text": map[string]any{"type": "string"},
					},
					"required": []string{"id", "text"},
				},
			},
		},
		"required": []string{"question"},
		"examples": []map[string]any{
			{
				"question": "Did we solve your problem?",
				"saveAs":   "solved",
				"buttons": []map[string]any{
					{"id": "yes", "text": "Yes"},
					{"id": "no", "text": "No"},
				},
			},
		},
	}
}

// NewAskQuestionNodeFactory creates a new factory instance.
func NewAskQuestionNodeFactory(deps protocol.Dependencies) protocol.NodeFactory {
	return &AskQuestionNodeFactory{deps: deps}
}
