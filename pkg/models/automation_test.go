package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearAutomation() *Automation {
	return &Automation{
		ID:        "auto-1",
		ChannelID: "channel-1",
		Name:      "Welcome",
		Trigger:   TriggerNewConversation,
		Status:    AutomationStatusActive,
		Nodes: []*Node{
			{ID: "b", Type: NodeTypeSendMessage},
			{ID: "a", Type: NodeTypeAskQuestion},
			{ID: "c", Type: NodeTypeCondition},
		},
		Edges: []*Edge{
			{ID: "e1", SourceNodeID: "a", TargetNodeID: "b"},
			{ID: "e2", SourceNodeID: "b", TargetNodeID: "c"},
		},
	}
}

func TestAutomation_Validation(t *testing.T) {
	validate := validator.New()

	require.NoError(t, validate.Struct(linearAutomation()))

	invalid := linearAutomation()
	invalid.Trigger = "cron"
	assert.Error(t, validate.Struct(invalid))

	invalid = linearAutomation()
	invalid.Status = ""
	assert.Error(t, validate.Struct(invalid))
}

func TestAutomation_StartNode(t *testing.T) {
	automation := linearAutomation()

	start := automation.StartNode()
	require.NotNil(t, start)
	assert.Equal(t, "a", start.ID)
}

func TestAutomation_StartNode_Cycle(t *testing.T) {
	automation := linearAutomation()
	automation.Edges = append(automation.Edges, &Edge{ID: "e3", SourceNodeID: "c", TargetNodeID: "a"})

	assert.Nil(t, automation.StartNode())
}

func TestAutomation_OutgoingEdges_PreservesOrder(t *testing.T) {
	automation := &Automation{
		Nodes: []*Node{{ID: "cond"}, {ID: "yes"}, {ID: "no"}},
		Edges: []*Edge{
			{ID: "e-yes", SourceNodeID: "cond", TargetNodeID: "yes"},
			{ID: "e-other", SourceNodeID: "yes", TargetNodeID: "no"},
			{ID: "e-no", SourceNodeID: "cond", TargetNodeID: "no"},
		},
	}

	edges := automation.OutgoingEdges("cond")
	require.Len(t, edges, 2)
	assert.Equal(t, "yes", edges[0].TargetNodeID)
	assert.Equal(t, "no", edges[1].TargetNodeID)

	assert.Empty(t, automation.OutgoingEdges("no"))
	assert.Len(t, automation.IncomingEdges("no"), 2)
}

func TestAutomation_NodeByID(t *testing.T) {
	automation := linearAutomation()

	assert.Equal(t, NodeTypeCondition, automation.NodeByID("c").Type)
	assert.Nil(t, automation.NodeByID("missing"))
}

func TestAutomation_MatchesMessage(t *testing.T) {
	testCases := []struct {
		name     string
		keywords []string
		text     string
		expected bool
	}{
		{name: "no keywords", keywords: nil, text: "anything", expected: true},
		{name: "case insensitive", keywords: []string{"Promo"}, text: "is there a PROMO today?", expected: true},
		{name: "no match", keywords: []string{"promo", "sale"}, text: "hello", expected: false},
		{name: "blank keyword ignored", keywords: []string{""}, text: "hello", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			automation := &Automation{TriggerKeywords: tc.keywords}
			assert.Equal(t, tc.expected, automation.MatchesMessage(tc.text))
		})
	}
}
