package persistence

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
)

// Collaborators exposes a Persistence through the narrow lookups node
// executors depend on (protocol.ContactDirectory, protocol.ConversationStore
// and protocol.TemplateLookup).
type Collaborators struct {
	persistence Persistence
}

func NewCollaborators(p Persistence) *Collaborators {
	return &Collaborators{persistence: p}
}

func (c *Collaborators) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	return c.persistence.Contacts().GetByID(ctx, contactID)
}

func (c *Collaborators) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return c.persistence.Conversations().GetByID(ctx, conversationID)
}

func (c *Collaborators) UpdateConversation(ctx context.Context, conversationID string, update models.ConversationUpdate) error {
	return c.persistence.Conversations().Update(ctx, conversationID, update)
}

func (c *Collaborators) FindTemplate(ctx context.Context, templateID, channelID string) (*models.Template, error) {
	return c.persistence.Templates().FindByIDAndChannel(ctx, templateID, channelID)
}
