package file

import (
	"sync"
	"testing"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	p := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", p.root)

	p = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", p.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.Error(t, NewPersistence("/does/not/exist/convoflow").HealthCheck(t.Context()))
	assert.NoError(t, NewPersistence(t.TempDir()).Close(t.Context()))
}

func TestAutomationRepository(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.Automations()
	ctx := t.Context()

	automations := []*models.Automation{
		{ID: "a1", ChannelID: "ch-1", Name: "Welcome", Trigger: models.TriggerNewConversation, Status: models.AutomationStatusActive},
		{ID: "a2", ChannelID: "ch-1", Name: "Off", Trigger: models.TriggerNewConversation, Status: models.AutomationStatusInactive},
		{ID: "a3", ChannelID: "ch-2", Name: "Other channel", Trigger: models.TriggerNewConversation, Status: models.AutomationStatusActive},
		{ID: "a4", ChannelID: "ch-1", Name: "Keywords", Trigger: models.TriggerMessageReceived, Status: models.AutomationStatusActive},
	}
	for _, automation := range automations {
		require.NoError(t, repo.Save(ctx, automation))
	}

	active, err := repo.FindActive(ctx, "ch-1", models.TriggerNewConversation)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a1", active[0].ID)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.IncrementExecutionCount(ctx, "a1", at))
	require.NoError(t, repo.IncrementExecutionCount(ctx, "a1", at))

	loaded, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.ExecutionCount)
	assert.True(t, at.Equal(*loaded.LastExecutedAt))

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsAutomationNotFound(err))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestExecutionRepository(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.Executions()
	ctx := t.Context()

	execution := &models.Execution{
		ID:           "exec-1",
		AutomationID: "a1",
		ContactID:    "c1",
		Status:       models.ExecutionRunning,
		Variables:    map[string]any{"name": "Ana"},
		StartedAt:    time.Now().UTC(),
	}

	require.NoError(t, repo.Create(ctx, execution))
	assert.Error(t, repo.Create(ctx, execution), "duplicate ids are rejected")

	require.NoError(t, repo.UpdateStatus(ctx, "exec-1", models.ExecutionCompleted, "done"))

	loaded, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionCompleted, loaded.Status)
	assert.Equal(t, "done", loaded.Result)
	assert.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, "Ana", loaded.Variables["name"])

	err = repo.UpdateStatus(ctx, "missing", models.ExecutionFailed, "x")
	assert.True(t, persistence.IsExecutionNotFound(err))

	completed, err := repo.ListByStatus(ctx, models.ExecutionCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	running, err := repo.ListByStatus(ctx, models.ExecutionRunning, models.ExecutionPaused)
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestExecutionRepository_Logs(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.Executions()
	ctx := t.Context()

	logs, err := repo.Logs(ctx, "exec-1")
	require.NoError(t, err)
	assert.Empty(t, logs)

	base := time.Now().UTC()

	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AppendLog(ctx, &models.ExecutionLog{
				ID:          string(rune('a' + i)),
				ExecutionID: "exec-1",
				NodeID:      "n1",
				Status:      models.LogCompleted,
				CreatedAt:   base.Add(time.Duration(i) * time.Second),
			}))
		}()
	}

	wg.Wait()

	logs, err = repo.Logs(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 5)
	assert.Equal(t, "a", logs[0].ID)
	assert.Equal(t, "e", logs[4].ID)
}

func TestPendingWaitRepository(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.PendingWaits()
	ctx := t.Context()

	wait := &models.PendingWait{
		ID:             "w1",
		ExecutionID:    "exec-1",
		NodeID:         "ask",
		ConversationID: "conv-1",
		Buttons:        []models.Button{{ID: "b1", Text: "Yes"}},
		CreatedAt:      time.Now().UTC(),
	}

	require.NoError(t, repo.Insert(ctx, wait))

	err := repo.Insert(ctx, &models.PendingWait{ID: "w2", ExecutionID: "exec-2", ConversationID: "conv-1"})
	assert.True(t, persistence.IsPendingWaitExists(err))

	loaded, err := repo.GetByConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "exec-1", loaded.ExecutionID)
	assert.Equal(t, wait.Buttons, loaded.Buttons)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "conv-1"))
	assert.True(t, persistence.IsPendingWaitNotFound(repo.Delete(ctx, "conv-1")))

	_, err = repo.GetByConversation(ctx, "conv-1")
	assert.True(t, persistence.IsPendingWaitNotFound(err))

	require.NoError(t, repo.Insert(ctx, &models.PendingWait{ID: "w3", ExecutionID: "exec-3", ConversationID: "conv-1"}))
}

func TestDirectoryRepositories(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := t.Context()

	require.NoError(t, p.Contacts().Save(ctx, &models.Contact{ID: "c1", ChannelID: "ch-1", Phone: "+5511999"}))
	contact, err := p.Contacts().GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "+5511999", contact.Phone)

	require.NoError(t, p.Conversations().Save(ctx, &models.Conversation{ID: "conv-1", Status: models.ConversationOpen}))

	assignee := "agent-1"
	require.NoError(t, p.Conversations().Update(ctx, "conv-1", models.ConversationUpdate{AssignedTo: &assignee}))

	conversation, err := p.Conversations().GetByID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "agent-1", conversation.AssignedTo)
	assert.Equal(t, models.ConversationOpen, conversation.Status)

	err = p.Conversations().Update(ctx, "missing", models.ConversationUpdate{})
	assert.True(t, persistence.IsConversationNotFound(err))

	require.NoError(t, p.Templates().Save(ctx, &models.Template{ID: "t1", ChannelID: "ch-1", Name: "welcome"}))

	template, err := p.Templates().FindByIDAndChannel(ctx, "t1", "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "welcome", template.Name)

	_, err = p.Templates().FindByIDAndChannel(ctx, "t1", "ch-2")
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestPersistence_RejectsPathTraversal(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.Automations().GetByID(t.Context(), "../etc/passwd")
	assert.ErrorIs(t, err, persistence.ErrInvalidID)
}
