package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

// PendingWaitRepository relies on the conversation_id primary key to keep at
// most one wait per conversation.
type PendingWaitRepository struct {
	db *sql.DB
}

const pendingWaitColumns = `conversation_id, id, execution_id, automation_id, node_id, contact_id, channel_id,
	variables, save_as, buttons, created_at`

func (r *PendingWaitRepository) Insert(ctx context.Context, wait *models.PendingWait) error {
	variables, err := marshalJSON(wait.Variables)
	if err != nil {
		return err
	}

	buttons, err := marshalJSON(wait.Buttons)
	if err != nil {
		return err
	}

	query := `INSERT INTO pending_waits (` + pendingWaitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (conversation_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		wait.ConversationID,
		wait.ID,
		wait.ExecutionID,
		wait.AutomationID,
		wait.NodeID,
		nullString(wait.ContactID),
		nullString(wait.ChannelID),
		variables,
		nullString(wait.SaveAs),
		buttons,
		wait.CreatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Insert", "pending wait", wait.ConversationID, err)
	}

	return requireAffected(result, "Insert", "pending wait", wait.ConversationID, persistence.ErrPendingWaitExists)
}

func (r *PendingWaitRepository) Delete(ctx context.Context, conversationID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM pending_waits WHERE conversation_id = $1", conversationID)
	if err != nil {
		return persistence.NewEntityError("Delete", "pending wait", conversationID, err)
	}

	return requireAffected(result, "Delete", "pending wait", conversationID, persistence.ErrPendingWaitNotFound)
}

func (r *PendingWaitRepository) GetByConversation(ctx context.Context, conversationID string) (*models.PendingWait, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+pendingWaitColumns+" FROM pending_waits WHERE conversation_id = $1", conversationID)

	wait, err := scanPendingWait(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrPendingWaitNotFound
		}

		return nil, persistence.NewEntityError("GetByConversation", "pending wait", conversationID, err)
	}

	return wait, nil
}

func (r *PendingWaitRepository) List(ctx context.Context) ([]*models.PendingWait, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+pendingWaitColumns+" FROM pending_waits ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query pending waits: %w", err)
	}
	defer rows.Close()

	var waits []*models.PendingWait

	for rows.Next() {
		wait, err := scanPendingWait(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending wait: %w", err)
		}

		waits = append(waits, wait)
	}

	return waits, rows.Err()
}

func scanPendingWait(row rowScanner) (*models.PendingWait, error) {
	var (
		wait                       models.PendingWait
		contactID, channelID, save sql.NullString
		variables, buttons         []byte
	)

	err := row.Scan(
		&wait.ConversationID,
		&wait.ID,
		&wait.ExecutionID,
		&wait.AutomationID,
		&wait.NodeID,
		&contactID,
		&channelID,
		&variables,
		&save,
		&buttons,
		&wait.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	wait.ContactID = contactID.String
	wait.ChannelID = channelID.String
	wait.SaveAs = save.String

	err = unmarshalJSON(variables, &wait.Variables)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON(buttons, &wait.Buttons)
	if err != nil {
		return nil, err
	}

	return &wait, nil
}
