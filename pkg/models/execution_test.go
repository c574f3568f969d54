package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutionStatus_IsTerminal(t *testing.T) {
	assert.False(t, ExecutionRunning.IsTerminal())
	assert.False(t, ExecutionPaused.IsTerminal())
	assert.True(t, ExecutionCompleted.IsTerminal())
	assert.True(t, ExecutionFailed.IsTerminal())
}

func TestExecution_Context_CopiesVariables(t *testing.T) {
	execution := &Execution{
		ID:             "exec-1",
		AutomationID:   "auto-1",
		ContactID:      "contact-1",
		ConversationID: "conv-1",
		ChannelID:      "channel-1",
		Variables:      map[string]any{"name": "Ana"},
	}

	execCtx := execution.Context()
	execCtx.SetVariable("name", "Bia")

	assert.Equal(t, "Ana", execution.Variables["name"])
	assert.Equal(t, "Bia", execCtx.StringVariable("name"))
	assert.Equal(t, "conv-1", execCtx.ConversationID)
}

func TestExecutionContext_StringVariable(t *testing.T) {
	execCtx := &ExecutionContext{}
	assert.Empty(t, execCtx.StringVariable("missing"))

	execCtx.SetVariable("count", 3)
	assert.Empty(t, execCtx.StringVariable("count"))
}

func TestPendingWait_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	wait := &PendingWait{CreatedAt: now.Add(-31 * time.Minute)}

	assert.True(t, wait.Expired(now, 30*time.Minute))
	assert.False(t, wait.Expired(now, time.Hour))
}

func TestConversationUpdate_Apply(t *testing.T) {
	conversation := &Conversation{ID: "conv-1", Status: ConversationOpen}
	assignee := "agent-1"
	status := ConversationAssigned

	ConversationUpdate{AssignedTo: &assignee, Status: &status}.Apply(conversation)

	assert.Equal(t, "agent-1", conversation.AssignedTo)
	assert.Equal(t, ConversationAssigned, conversation.Status)
	assert.Nil(t, conversation.LastMessageAt)
}
