// Package persistence provides the data storage abstraction for automations,
// executions and the collaborators the engine reads from.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/convoflow/pkg/models"
)

type Persistence interface {
	Automations() AutomationRepository
	Executions() ExecutionRepository
	PendingWaits() PendingWaitRepository
	Contacts() ContactRepository
	Conversations() ConversationRepository
	Templates() TemplateRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type AutomationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	// FindActive returns active automations of a channel for a trigger kind.
	FindActive(ctx context.Context, channelID string, trigger models.TriggerKind) ([]*models.Automation, error)
	IncrementExecutionCount(ctx context.Context, id string, at time.Time) error
	Save(ctx context.Context, automation *models.Automation) error
	List(ctx context.Context) ([]*models.Automation, error)
}

type ExecutionRepository interface {
	Create(ctx context.Context, execution *models.Execution) error
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	// UpdateStatus sets status and result. The last write wins.
	UpdateStatus(ctx context.Context, id string, status models.ExecutionStatus, result string) error
	Save(ctx context.Context, execution *models.Execution) error
	ListByStatus(ctx context.Context, statuses ...models.ExecutionStatus) ([]*models.Execution, error)
	AppendLog(ctx context.Context, entry *models.ExecutionLog) error
	Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)
}

// PendingWaitRepository is the durable store of suspended executions. It
// holds at most one wait per conversation.
type PendingWaitRepository interface {
	// Insert stores wait unless one already exists for its conversation, in
	// which case ErrPendingWaitExists is returned.
	Insert(ctx context.Context, wait *models.PendingWait) error
	Delete(ctx context.Context, conversationID string) error
	GetByConversation(ctx context.Context, conversationID string) (*models.PendingWait, error)
	List(ctx context.Context) ([]*models.PendingWait, error)
}

type ContactRepository interface {
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	Save(ctx context.Context, contact *models.Contact) error
}

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	Update(ctx context.Context, id string, update models.ConversationUpdate) error
	Save(ctx context.Context, conversation *models.Conversation) error
}

type TemplateRepository interface {
	// FindByIDAndChannel returns ErrTemplateNotFound when the template does not
	// exist or belongs to another channel.
	FindByIDAndChannel(ctx context.Context, id, channelID string) (*models.Template, error)
	Save(ctx context.Context, template *models.Template) error
}

// ApplyStatus mutates execution the way UpdateStatus does, for backends that
// rewrite whole records.
func ApplyStatus(execution *models.Execution, status models.ExecutionStatus, result string, now time.Time) {
	execution.Status = status
	execution.Result = result
	execution.UpdatedAt = now

	if status.IsTerminal() {
		execution.CompletedAt = &now
		execution.ResumeAt = nil
	}
}
