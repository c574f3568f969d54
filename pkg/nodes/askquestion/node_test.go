package askquestion

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/convoflow/pkg/mocks"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
	"github.com/dukex/convoflow/pkg/pending"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	contacts      *mocks.MockContactDirectory
	conversations *mocks.MockConversationStore
	gateway       *mocks.MockMessagingGateway
	notifier      *mocks.MockNotifier
	waits         *pending.Registry
	deps          protocol.Dependencies
}

func newFixture() *fixture {
	f := &fixture{
		contacts:      &mocks.MockContactDirectory{},
		conversations: &mocks.MockConversationStore{},
		gateway:       &mocks.MockMessagingGateway{},
		notifier:      &mocks.MockNotifier{},
		waits:         pending.NewRegistry(nil, slog.Default()),
	}
	f.deps = protocol.Dependencies{
		Contacts:      f.contacts,
		Conversations: f.conversations,
		Gateway:       f.gateway,
		Notifier:      f.notifier,
		Waits:         f.waits,
		Now:           func() time.Time { return now },
	}

	f.contacts.On("GetContact", mock.Anything, "contact-1").Return(&models.Contact{ID: "contact-1", Phone: "+5511999"}, nil)
	f.conversations.On("UpdateConversation", mock.Anything, "conv-1", mock.Anything).Return(nil)
	f.notifier.On("MessageSent", mock.Anything, mock.Anything).Return()

	return f
}

func execContext() *models.ExecutionContext {
	return &models.ExecutionContext{
		ID:             "exec-1",
		AutomationID:   "auto-1",
		ContactID:      "contact-1",
		ConversationID: "conv-1",
		ChannelID:      "channel-1",
		Variables:      map[string]any{"name": "Ana"},
	}
}

func TestAskQuestionNode_PlainQuestion(t *testing.T) {
	f := newFixture()
	f.gateway.On("SendText", mock.Anything, "+5511999", "Ana, how old are you?", "channel-1").Return("wamid-1", nil)

	node, err := NewAskQuestionNode(testutil.AskQuestionNode("q1", "{{name}}, how old are you?", "age"), f.deps)
	require.NoError(t, err)

	outcome, err := node.Execute(t.Context(), execContext())
	require.NoError(t, err)
	assert.Equal(t, models.SuspendForResponse, outcome.Suspend)

	wait, ok := f.waits.Get("conv-1")
	require.True(t, ok)
	assert.Equal(t, "exec-1", wait.ExecutionID)
	assert.Equal(t, "q1", wait.NodeID)
	assert.Equal(t, "age", wait.SaveAs)
	assert.Equal(t, now, wait.CreatedAt)
	assert.Equal(t, "Ana", wait.Variables["name"])
	assert.Equal(t, wait.ID, outcome.Output["pending_wait_id"])
}

func TestAskQuestionNode_Buttons(t *testing.T) {
	f := newFixture()
	buttons := []models.Button{{ID: "b1", Text: "Yes"}, {ID: "b2", Text: "No"}}
	f.gateway.On("SendInteractive", mock.Anything, "+5511999", "Continue?", buttons, "channel-1").Return("wamid-1", nil)

	node, err := NewAskQuestionNode(testutil.AskQuestionNode("q1", "Continue?", "answer", buttons...), f.deps)
	require.NoError(t, err)

	_, err = node.Execute(t.Context(), execContext())
	require.NoError(t, err)

	wait, ok := f.waits.Get("conv-1")
	require.True(t, ok)
	assert.Equal(t, buttons, wait.Buttons)
	f.gateway.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAskQuestionNode_ConflictFailsWithoutSending(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.waits.Register(t.Context(), &models.PendingWait{ID: "other", ExecutionID: "exec-0", ConversationID: "conv-1"}))

	node, err := NewAskQuestionNode(testutil.AskQuestionNode("q1", "Name?", "name"), f.deps)
	require.NoError(t, err)

	_, err = node.Execute(t.Context(), execContext())
	require.ErrorIs(t, err, pending.ErrWaitConflict)

	wait, _ := f.waits.Get("conv-1")
	assert.Equal(t, "exec-0", wait.ExecutionID)
	f.gateway.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAskQuestionNode_SendFailureRemovesWait(t *testing.T) {
	f := newFixture()
	f.gateway.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	node, err := NewAskQuestionNode(testutil.AskQuestionNode("q1", "Name?", "name"), f.deps)
	require.NoError(t, err)

	_, err = node.Execute(t.Context(), execContext())
	require.Error(t, err)
	assert.Equal(t, nodes.ErrorKindTransport, nodes.ErrorKind(err))
	assert.Equal(t, 0, f.waits.Len())
}

func TestAskQuestionNode_RequiresConversation(t *testing.T) {
	f := newFixture()

	node, err := NewAskQuestionNode(testutil.AskQuestionNode("q1", "Name?", "name"), f.deps)
	require.NoError(t, err)

	execCtx := execContext()
	execCtx.ConversationID = ""

	_, err = node.Execute(t.Context(), execCtx)
	assert.True(t, nodes.IsConfigurationError(err))
}

func TestAskQuestionNodeFactory(t *testing.T) {
	factory := NewAskQuestionNodeFactory(protocol.Dependencies{})

	assert.Equal(t, models.NodeTypeAskQuestion, factory.ID())
	assert.Contains(t, factory.Schema()["required"], "question")

	_, err := factory.Create(t.Context(), testutil.CreateTestNode("q1", models.NodeTypeAskQuestion, map[string]any{}))
	assert.Error(t, err)
}
