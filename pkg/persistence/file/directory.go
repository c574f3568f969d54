package file

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

const (
	contactsDir      = "contacts"
	conversationsDir = "conversations"
	templatesDir     = "templates"
)

type ContactRepository struct {
	p *Persistence
}

func (r *ContactRepository) GetByID(_ context.Context, id string) (*models.Contact, error) {
	var contact models.Contact

	err := r.p.readJSON(contactsDir, id, &contact)
	if err != nil {
		return nil, persistence.NewEntityError("GetByID", "contact", id, notFound(err, persistence.ErrContactNotFound))
	}

	return &contact, nil
}

func (r *ContactRepository) Save(_ context.Context, contact *models.Contact) error {
	return r.p.writeJSON(contactsDir, contact.ID, contact)
}

type ConversationRepository struct {
	p *Persistence
}

func (r *ConversationRepository) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation

	err := r.p.readJSON(conversationsDir, id, &conversation)
	if err != nil {
		return nil, persistence.NewEntityError("GetByID", "conversation", id, notFound(err, persistence.ErrConversationNotFound))
	}

	return &conversation, nil
}

func (r *ConversationRepository) Update(_ context.Context, id string, update models.ConversationUpdate) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	var conversation models.Conversation

	err := r.p.readJSON(conversationsDir, id, &conversation)
	if err != nil {
		return persistence.NewEntityError("Update", "conversation", id, notFound(err, persistence.ErrConversationNotFound))
	}

	update.Apply(&conversation)

	return r.p.writeJSON(conversationsDir, id, &conversation)
}

func (r *ConversationRepository) Save(_ context.Context, conversation *models.Conversation) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.p.writeJSON(conversationsDir, conversation.ID, conversation)
}

type TemplateRepository struct {
	p *Persistence
}

func (r *TemplateRepository) FindByIDAndChannel(_ context.Context, id, channelID string) (*models.Template, error) {
	var template models.Template

	err := r.p.readJSON(templatesDir, id, &template)
	if err != nil {
		return nil, persistence.NewEntityError("FindByIDAndChannel", "template", id, notFound(err, persistence.ErrTemplateNotFound))
	}

	if template.ChannelID != channelID {
		return nil, persistence.NewEntityError("FindByIDAndChannel", "template", id, persistence.ErrTemplateNotFound)
	}

	return &template, nil
}

func (r *TemplateRepository) Save(_ context.Context, template *models.Template) error {
	return r.p.writeJSON(templatesDir, template.ID, template)
}
