package file

import (
	"context"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

const automationsDir = "automations"

// AutomationRepository handles automation-related file operations.
type AutomationRepository struct {
	p *Persistence
}

func (r *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	var automation models.Automation

	err := r.p.readJSON(automationsDir, id, &automation)
	if err != nil {
		return nil, persistence.NewEntityError("GetByID", "automation", id, notFound(err, persistence.ErrAutomationNotFound))
	}

	return &automation, nil
}

func (r *AutomationRepository) FindActive(_ context.Context, channelID string, trigger models.TriggerKind) ([]*models.Automation, error) {
	all, err := readAll[models.Automation](r.p, automationsDir)
	if err != nil {
		return nil, err
	}

	var active []*models.Automation

	for _, automation := range all {
		if automation.ChannelID == channelID && automation.Trigger == trigger && automation.IsActive() {
			active = append(active, automation)
		}
	}

	return active, nil
}

func (r *AutomationRepository) IncrementExecutionCount(_ context.Context, id string, at time.Time) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	var automation models.Automation

	err := r.p.readJSON(automationsDir, id, &automation)
	if err != nil {
		return persistence.NewEntityError("IncrementExecutionCount", "automation", id, notFound(err, persistence.ErrAutomationNotFound))
	}

	automation.ExecutionCount++
	automation.LastExecutedAt = &at

	return r.p.writeJSON(automationsDir, id, &automation)
}

func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	return r.p.writeJSON(automationsDir, automation.ID, automation)
}

func (r *AutomationRepository) List(_ context.Context) ([]*models.Automation, error) {
	return readAll[models.Automation](r.p, automationsDir)
}
