package protocol

import (
	"context"
	"time"

	"github.com/dukex/convoflow/pkg/models"
)

// ContactDirectory resolves contacts.
type ContactDirectory interface {
	GetContact(ctx context.Context, contactID string) (*models.Contact, error)
}

// ConversationStore reads and partially updates conversations.
type ConversationStore interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	UpdateConversation(ctx context.Context, conversationID string, update models.ConversationUpdate) error
}

// TemplateLookup finds a template owned by a channel.
type TemplateLookup interface {
	FindTemplate(ctx context.Context, templateID, channelID string) (*models.Template, error)
}

// MessagingGateway delivers outbound WhatsApp messages. Every method returns
// the provider message id used for correlation.
type MessagingGateway interface {
	SendText(ctx context.Context, phone, text, channelID string) (string, error)
	SendInteractive(ctx context.Context, phone, text string, buttons []models.Button, channelID string) (string, error)
	SendTemplate(ctx context.Context, phone, templateName string, params []string, channelID string) (string, error)
	SendMedia(ctx context.Context, phone string, media models.MediaAttachment, caption, channelID string) (string, error)
}

// WaitRegistrar parks executions waiting for a user reply.
type WaitRegistrar interface {
	// Register stores wait unless the conversation already has one outstanding.
	Register(ctx context.Context, wait *models.PendingWait) error
	// Remove drops the outstanding wait of a conversation.
	Remove(ctx context.Context, conversationID string) error
}

// LifecycleKind names an automation lifecycle notification.
type LifecycleKind string

const (
	LifecycleStarted    LifecycleKind = "started"
	LifecyclePaused     LifecycleKind = "paused"
	LifecycleResumed    LifecycleKind = "resumed"
	LifecycleCompleted  LifecycleKind = "completed"
	LifecycleFailed     LifecycleKind = "failed"
	LifecycleTimedOut   LifecycleKind = "timed_out"
	LifecycleCancelled  LifecycleKind = "cancelled"
	LifecycleNodeFailed LifecycleKind = "node_failed"
)

// OutboundMessage describes a message an automation sent to a contact.
type OutboundMessage struct {
	ExecutionID    string
	ConversationID string
	ContactID      string
	ChannelID      string
	MessageID      string
	Text           string
	SentAt         time.Time
}

// Notifier is a best-effort broadcast sink. Implementations must not block
// on delivery and never report errors to the caller.
type Notifier interface {
	Lifecycle(ctx context.Context, kind LifecycleKind, execution *models.Execution, details map[string]any)
	MessageSent(ctx context.Context, message OutboundMessage)
}

// Dependencies contains the collaborators node executors need.
type Dependencies struct {
	Contacts      ContactDirectory
	Conversations ConversationStore
	Templates     TemplateLookup
	Gateway       MessagingGateway
	Waits         WaitRegistrar
	Notifier      Notifier
	Now           func() time.Time
}

// Clock returns the configured time source.
func (d Dependencies) Clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now().UTC()
}
