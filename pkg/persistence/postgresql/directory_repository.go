package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

type ContactRepository struct {
	db *sql.DB
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	var (
		contact models.Contact
		name    sql.NullString
	)

	err := r.db.QueryRowContext(ctx, "SELECT id, channel_id, name, phone FROM contacts WHERE id = $1", id).
		Scan(&contact.ID, &contact.ChannelID, &name, &contact.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrContactNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "contact", id, err)
	}

	contact.Name = name.String

	return &contact, nil
}

func (r *ContactRepository) Save(ctx context.Context, contact *models.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, channel_id, name, phone) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET channel_id = EXCLUDED.channel_id, name = EXCLUDED.name, phone = EXCLUDED.phone`,
		contact.ID, contact.ChannelID, nullString(contact.Name), contact.Phone)
	if err != nil {
		return persistence.NewEntityError("Save", "contact", contact.ID, err)
	}

	return nil
}

type ConversationRepository struct {
	db *sql.DB
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var (
		conversation         models.Conversation
		assignedTo, lastText sql.NullString
		lastMessageAt        sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, channel_id, contact_id, assigned_to, status, last_message_at, last_message_text
		FROM conversations WHERE id = $1`, id).
		Scan(&conversation.ID, &conversation.ChannelID, &conversation.ContactID, &assignedTo,
			&conversation.Status, &lastMessageAt, &lastText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrConversationNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "conversation", id, err)
	}

	conversation.AssignedTo = assignedTo.String
	conversation.LastMessageText = lastText.String
	conversation.LastMessageAt = nullTime(lastMessageAt)

	return &conversation, nil
}

// Update only touches the columns set in update.
func (r *ConversationRepository) Update(ctx context.Context, id string, update models.ConversationUpdate) error {
	var status *string

	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			assigned_to = COALESCE($2, assigned_to),
			status = COALESCE($3, status),
			last_message_at = COALESCE($4, last_message_at),
			last_message_text = COALESCE($5, last_message_text)
		WHERE id = $1`,
		id, update.AssignedTo, status, update.LastMessageAt, update.LastMessageText)
	if err != nil {
		return persistence.NewEntityError("Update", "conversation", id, err)
	}

	return requireAffected(result, "Update", "conversation", id, persistence.ErrConversationNotFound)
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, channel_id, contact_id, assigned_to, status, last_message_at, last_message_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			assigned_to = EXCLUDED.assigned_to,
			status = EXCLUDED.status,
			last_message_at = EXCLUDED.last_message_at,
			last_message_text = EXCLUDED.last_message_text`,
		conversation.ID, conversation.ChannelID, conversation.ContactID, nullString(conversation.AssignedTo),
		conversation.Status, conversation.LastMessageAt, nullString(conversation.LastMessageText))
	if err != nil {
		return persistence.NewEntityError("Save", "conversation", conversation.ID, err)
	}

	return nil
}

type TemplateRepository struct {
	db *sql.DB
}

func (r *TemplateRepository) FindByIDAndChannel(ctx context.Context, id, channelID string) (*models.Template, error) {
	var (
		template       models.Template
		language, body sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, channel_id, name, language, body FROM templates WHERE id = $1 AND channel_id = $2`, id, channelID).
		Scan(&template.ID, &template.ChannelID, &template.Name, &language, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrTemplateNotFound
		}

		return nil, persistence.NewEntityError("FindByIDAndChannel", "template", id, err)
	}

	template.Language = language.String
	template.Body = body.String

	return &template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.Template) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO templates (id, channel_id, name, language, body) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET channel_id = EXCLUDED.channel_id, name = EXCLUDED.name,
			language = EXCLUDED.language, body = EXCLUDED.body`,
		template.ID, template.ChannelID, template.Name, nullString(template.Language), nullString(template.Body))
	if err != nil {
		return persistence.NewEntityError("Save", "template", template.ID, err)
	}

	return nil
}
