package file

import (
	"context"
	"errors"
	"os"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

const pendingWaitsDir = "pending_waits"

// PendingWaitRepository stores one document per conversation. Inserts use
// O_EXCL so a second wait for the same conversation is rejected.
type PendingWaitRepository struct {
	p *Persistence
}

func (r *PendingWaitRepository) Insert(_ context.Context, wait *models.PendingWait) error {
	created, err := r.p.createJSON(pendingWaitsDir, wait.ConversationID, wait)
	if err != nil {
		return persistence.NewEntityError("Insert", "pending wait", wait.ConversationID, err)
	}

	if !created {
		return persistence.NewEntityError("Insert", "pending wait", wait.ConversationID, persistence.ErrPendingWaitExists)
	}

	return nil
}

func (r *PendingWaitRepository) Delete(_ context.Context, conversationID string) error {
	err := r.p.remove(pendingWaitsDir, conversationID)
	if err != nil {
		return persistence.NewEntityError("Delete", "pending wait", conversationID, notFound(err, persistence.ErrPendingWaitNotFound))
	}

	return nil
}

func (r *PendingWaitRepository) GetByConversation(_ context.Context, conversationID string) (*models.PendingWait, error) {
	var wait models.PendingWait

	err := r.p.readJSON(pendingWaitsDir, conversationID, &wait)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = persistence.ErrPendingWaitNotFound
		}

		return nil, persistence.NewEntityError("GetByConversation", "pending wait", conversationID, err)
	}

	return &wait, nil
}

func (r *PendingWaitRepository) List(_ context.Context) ([]*models.PendingWait, error) {
	return readAll[models.PendingWait](r.p, pendingWaitsDir)
}
