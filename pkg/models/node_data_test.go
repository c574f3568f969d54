package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNodeData(t *testing.T) {
	testCases := []struct {
		name     string
		node     *Node
		expected NodeData
	}{
		{
			name:     "send message",
			node:     &Node{ID: "n1", Type: NodeTypeSendMessage, Data: map[string]any{"message": "Hi {{name}}"}},
			expected: &SendMessageData{Message: "Hi {{name}}"},
		},
		{
			name: "send message with media only",
			node: &Node{ID: "n1", Type: NodeTypeSendMessage, Data: map[string]any{
				"media": []any{map[string]any{"type": "image", "url": "https://cdn.example.com/a.png"}},
			}},
			expected: &SendMessageData{Media: []MediaAttachment{{Type: "image", URL: "https://cdn.example.com/a.png"}}},
		},
		{
			name: "ask question with buttons",
			node: &Node{ID: "n2", Type: NodeTypeAskQuestion, Data: map[string]any{
				"question": "Continue?",
				"saveAs":   "answer",
				"buttons":  []any{map[string]any{"id": "b1", "text": "Yes"}},
			}},
			expected: &AskQuestionData{Question: "Continue?", SaveAs: "answer", Buttons: []Button{{ID: "b1", Text: "Yes"}}},
		},
		{
			name:     "delay",
			node:     &Node{ID: "n3", Type: NodeTypeDelay, Data: map[string]any{"seconds": 30}},
			expected: &DelayData{Seconds: 30},
		},
		{
			name: "send template",
			node: &Node{ID: "n4", Type: NodeTypeSendTemplate, Data: map[string]any{
				"templateId": "tpl-1",
				"params":     []any{"{{name}}"},
			}},
			expected: &SendTemplateData{TemplateID: "tpl-1", Params: []string{"{{name}}"}},
		},
		{
			name:     "assign to human",
			node:     &Node{ID: "n5", Type: NodeTypeAssignToHuman, Data: map[string]any{"assigneeId": "agent-7"}},
			expected: &AssignToHumanData{AssigneeID: "agent-7"},
		},
		{
			name: "condition",
			node: &Node{ID: "n6", Type: NodeTypeCondition, Data: map[string]any{
				"conditionType": "keyword",
				"matchType":     "any",
				"values":        []any{"refund", "cancel"},
			}},
			expected: &ConditionData{ConditionType: ConditionKeyword, MatchType: MatchAny, Values: []string{"refund", "cancel"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := DecodeNodeData(tc.node)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, data)
			assert.Equal(t, tc.node.Type, data.NodeType())
		})
	}
}

func TestDecodeNodeData_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		node *Node
	}{
		{name: "empty message", node: &Node{ID: "n1", Type: NodeTypeSendMessage, Data: map[string]any{}}},
		{name: "question missing", node: &Node{ID: "n2", Type: NodeTypeAskQuestion, Data: map[string]any{"saveAs": "x"}}},
		{name: "negative delay", node: &Node{ID: "n3", Type: NodeTypeDelay, Data: map[string]any{"seconds": -1}}},
		{name: "delay beyond a year", node: &Node{ID: "n3", Type: NodeTypeDelay, Data: map[string]any{"seconds": MaxDelaySeconds + 1}}},
		{name: "delay overflowing duration", node: &Node{ID: "n3", Type: NodeTypeDelay, Data: map[string]any{"seconds": int64(1e10)}}},
		{name: "delay wrong type", node: &Node{ID: "n3", Type: NodeTypeDelay, Data: map[string]any{"seconds": "ten"}}},
		{name: "template missing", node: &Node{ID: "n4", Type: NodeTypeSendTemplate, Data: map[string]any{}}},
		{name: "assignee missing", node: &Node{ID: "n5", Type: NodeTypeAssignToHuman, Data: map[string]any{}}},
		{name: "condition type missing", node: &Node{ID: "n6", Type: NodeTypeCondition, Data: map[string]any{"values": []any{"a"}}}},
		{name: "invalid media type", node: &Node{ID: "n7", Type: NodeTypeSendMessage, Data: map[string]any{
			"media": []any{map[string]any{"type": "sticker", "url": "https://cdn.example.com/a.webp"}},
		}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeNodeData(tc.node)
			assert.Error(t, err)
		})
	}
}

func TestDecodeNodeData_UnknownType(t *testing.T) {
	_, err := DecodeNodeData(&Node{ID: "n1", Type: "http_request"})
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}
