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

// ExecutionRepository handles execution and execution log database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionColumns = `id, automation_id, contact_id, conversation_id, channel_id, status, variables,
	trigger_data, result, current_node_id, resume_at, started_at, updated_at, completed_at`

func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
	return r.write(ctx, "Create", execution, false)
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	execution.UpdatedAt = time.Now().UTC()

	return r.write(ctx, "Save", execution, true)
}

func (r *ExecutionRepository) write(ctx context.Context, op string, execution *models.Execution, upsert bool) error {
	variables, err := marshalJSON(execution.Variables)
	if err != nil {
		return err
	}

	triggerData, err := marshalJSON(execution.TriggerData)
	if err != nil {
		return err
	}

	query := `INSERT INTO executions (` + executionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	if upsert {
		query += `
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			variables = EXCLUDED.variables,
			result = EXCLUDED.result,
			current_node_id = EXCLUDED.current_node_id,
			resume_at = EXCLUDED.resume_at,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at`
	}

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.AutomationID,
		execution.ContactID,
		nullString(execution.ConversationID),
		nullString(execution.ChannelID),
		execution.Status,
		variables,
		triggerData,
		nullString(execution.Result),
		nullString(execution.CurrentNodeID),
		execution.ResumeAt,
		execution.StartedAt,
		execution.UpdatedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewEntityError(op, "execution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+executionColumns+" FROM executions WHERE id = $1", id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrExecutionNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "execution", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) UpdateStatus(ctx context.Context, id string, status models.ExecutionStatus, result string) error {
	query := `
		UPDATE executions SET
			status = $2,
			result = $3,
			updated_at = NOW(),
			completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END,
			resume_at = CASE WHEN $2 IN ('completed', 'failed') THEN NULL ELSE resume_at END
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, status, nullString(result))
	if err != nil {
		return persistence.NewEntityError("UpdateStatus", "execution", id, err)
	}

	return requireAffected(res, "UpdateStatus", "execution", id, persistence.ErrExecutionNotFound)
}

func (r *ExecutionRepository) ListByStatus(ctx context.Context, statuses ...models.ExecutionStatus) ([]*models.Execution, error) {
	query := "SELECT " + executionColumns + " FROM executions"
	args := []any{}

	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}

		query += " WHERE status = ANY($1)"
		args = append(args, pq.Array(values))
	}

	query += " ORDER BY started_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var executions []*models.Execution

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

func (r *ExecutionRepository) AppendLog(ctx context.Context, entry *models.ExecutionLog) error {
	input, err := marshalJSON(entry.Input)
	if err != nil {
		return err
	}

	output, err := marshalJSON(entry.Output)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO execution_logs (id, execution_id, node_id, node_type, status, input_data, output_data, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ExecutionID,
		entry.NodeID,
		entry.NodeType,
		entry.Status,
		input,
		output,
		nullString(entry.Error),
		entry.CreatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("AppendLog", "execution", entry.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, execution_id, node_id, node_type, status, input_data, output_data, error_message, created_at
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	logs := []*models.ExecutionLog{}

	for rows.Next() {
		var (
			entry         models.ExecutionLog
			input, output []byte
			errorMessage  sql.NullString
		)

		err := rows.Scan(&entry.ID, &entry.ExecutionID, &entry.NodeID, &entry.NodeType, &entry.Status,
			&input, &output, &errorMessage, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		entry.Error = errorMessage.String

		err = unmarshalJSON(input, &entry.Input)
		if err != nil {
			return nil, err
		}

		err = unmarshalJSON(output, &entry.Output)
		if err != nil {
			return nil, err
		}

		logs = append(logs, &entry)
	}

	return logs, rows.Err()
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution                                        models.Execution
		conversationID, channelID, result, currentNodeID sql.NullString
		variables, triggerData                           []byte
		resumeAt, completedAt                            sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.AutomationID,
		&execution.ContactID,
		&conversationID,
		&channelID,
		&execution.Status,
		&variables,
		&triggerData,
		&result,
		&currentNodeID,
		&resumeAt,
		&execution.StartedAt,
		&execution.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.ConversationID = conversationID.String
	execution.ChannelID = channelID.String
	execution.Result = result.String
	execution.CurrentNodeID = currentNodeID.String
	execution.ResumeAt = nullTime(resumeAt)
	execution.CompletedAt = nullTime(completedAt)

	err = unmarshalJSON(variables, &execution.Variables)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON(triggerData, &execution.TriggerData)
	if err != nil {
		return nil, err
	}

	return &execution, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time

	return &v
}
