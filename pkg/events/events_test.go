package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicFor(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{ConversationStartedEvent, InboundTopic},
		{MessageReceivedEvent, InboundTopic},
		{ConversationClosedEvent, InboundTopic},
		{MessageOutboundEvent, OutboundTopic},
		{MessageSentEvent, LifecycleTopic},
		{ExecutionPausedEvent, LifecycleTopic},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.want, TopicFor(tt.eventType))
		})
	}
}

func TestNew(t *testing.T) {
	event, ok := New(ExecutionTimedOutEvent)
	require.True(t, ok)
	assert.IsType(t, &ExecutionLifecycle{}, event)

	event, ok = New(MessageReceivedEvent)
	require.True(t, ok)
	assert.IsType(t, &MessageReceived{}, event)

	_, ok = New("workflow.triggered")
	assert.False(t, ok)
}

func TestExecutionLifecycle_TypeFollowsBaseEvent(t *testing.T) {
	event := ExecutionLifecycle{BaseEvent: NewBaseEvent(ExecutionPausedEvent), ExecutionID: "exec-1"}
	assert.Equal(t, ExecutionPausedEvent, event.GetType())

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded ExecutionLifecycle
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, ExecutionPausedEvent, decoded.GetType())
	assert.Equal(t, "exec-1", decoded.ExecutionID)
}

func TestMessageReceived_Message(t *testing.T) {
	event := MessageReceived{Text: "2", ButtonReply: &models.ButtonReply{ID: "b2", Title: "No"}}

	msg := event.Message()
	assert.Equal(t, "2", msg.Text)
	assert.Equal(t, "b2", msg.ButtonReply.ID)
}
