package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/lib/pq"
)

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const automationColumns = `id, channel_id, name, trigger_kind, trigger_keywords, status, nodes, edges,
	execution_count, last_executed_at, created_at, updated_at`

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+automationColumns+" FROM automations WHERE id = $1", id)

	automation, err := scanAutomation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrAutomationNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "automation", id, err)
	}

	return automation, nil
}

func (r *AutomationRepository) FindActive(ctx context.Context, channelID string, trigger models.TriggerKind) ([]*models.Automation, error) {
	query := "SELECT " + automationColumns + ` FROM automations
		WHERE channel_id = $1 AND trigger_kind = $2 AND status = 'active'
		ORDER BY created_at, id`

	return r.query(ctx, query, channelID, trigger)
}

func (r *AutomationRepository) List(ctx context.Context) ([]*models.Automation, error) {
	return r.query(ctx, "SELECT "+automationColumns+" FROM automations ORDER BY created_at, id")
}

func (r *AutomationRepository) IncrementExecutionCount(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE automations SET execution_count = execution_count + 1, last_executed_at = $2 WHERE id = $1",
		id, at)
	if err != nil {
		return persistence.NewEntityError("IncrementExecutionCount", "automation", id, err)
	}

	return requireAffected(result, "IncrementExecutionCount", "automation", id, persistence.ErrAutomationNotFound)
}

func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	nodes, err := marshalJSON(automation.Nodes)
	if err != nil {
		return err
	}

	edges, err := marshalJSON(automation.Edges)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	keywords := automation.TriggerKeywords
	if keywords == nil {
		keywords = []string{}
	}

	query := `
		INSERT INTO automations (` + automationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			name = EXCLUDED.name,
			trigger_kind = EXCLUDED.trigger_kind,
			trigger_keywords = EXCLUDED.trigger_keywords,
			status = EXCLUDED.status,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		automation.ID,
		automation.ChannelID,
		automation.Name,
		automation.Trigger,
		pq.Array(keywords),
		automation.Status,
		nodes,
		edges,
		automation.ExecutionCount,
		automation.LastExecutedAt,
		automation.CreatedAt,
		automation.UpdatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Save", "automation", automation.ID, err)
	}

	return nil
}

func (r *AutomationRepository) query(ctx context.Context, query string, args ...any) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var automations []*models.Automation

	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	return automations, rows.Err()
}

func scanAutomation(row rowScanner) (*models.Automation, error) {
	var (
		automation   models.Automation
		nodes, edges []byte
		lastExecuted sql.NullTime
	)

	err := row.Scan(
		&automation.ID,
		&automation.ChannelID,
		&automation.Name,
		&automation.Trigger,
		pq.Array(&automation.TriggerKeywords),
		&automation.Status,
		&nodes,
		&edges,
		&automation.ExecutionCount,
		&lastExecuted,
		&automation.CreatedAt,
		&automation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastExecuted.Valid {
		t := lastExecuted.Time
		automation.LastExecutedAt = &t
	}

	err = unmarshalJSON(nodes, &automation.Nodes)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON(edges, &automation.Edges)
	if err != nil {
		return nil, err
	}

	return &automation, nil
}

func requireAffected(result sql.Result, op, entity, id string, sentinel error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewEntityError(op, entity, id, err)
	}

	if affected == 0 {
		return persistence.NewEntityError(op, entity, id, sentinel)
	}

	return nil
}
