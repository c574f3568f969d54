package file

import (
	"context"
	"errors"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

const (
	executionsDir    = "executions"
	executionLogsDir = "execution_logs"
)

// ExecutionRepository handles execution and execution log file operations.
// Logs of one execution are kept in a single JSON array document.
type ExecutionRepository struct {
	p *Persistence
}

func (r *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	created, err := r.p.createJSON(executionsDir, execution.ID, execution)
	if err != nil {
		return err
	}

	if !created {
		return persistence.NewEntityError("Create", "execution", execution.ID, errors.New("execution already exists"))
	}

	return nil
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	var execution models.Execution

	err := r.p.readJSON(executionsDir, id, &execution)
	if err != nil {
		return nil, persistence.NewEntityError("GetByID", "execution", id, notFound(err, persistence.ErrExecutionNotFound))
	}

	return &execution, nil
}

func (r *ExecutionRepository) UpdateStatus(_ context.Context, id string, status models.ExecutionStatus, result string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	var execution models.Execution

	err := r.p.readJSON(executionsDir, id, &execution)
	if err != nil {
		return persistence.NewEntityError("UpdateStatus", "execution", id, notFound(err, persistence.ErrExecutionNotFound))
	}

	persistence.ApplyStatus(&execution, status, result, time.Now().UTC())

	return r.p.writeJSON(executionsDir, id, &execution)
}

func (r *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	execution.UpdatedAt = time.Now().UTC()

	return r.p.writeJSON(executionsDir, execution.ID, execution)
}

func (r *ExecutionRepository) ListByStatus(_ context.Context, statuses ...models.ExecutionStatus) ([]*models.Execution, error) {
	all, err := readAll[models.Execution](r.p, executionsDir)
	if err != nil {
		return nil, err
	}

	if len(statuses) == 0 {
		return all, nil
	}

	var matched []*models.Execution

	for _, execution := range all {
		if slices.Contains(statuses, execution.Status) {
			matched = append(matched, execution)
		}
	}

	return matched, nil
}

func (r *ExecutionRepository) AppendLog(_ context.Context, entry *models.ExecutionLog) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	var logs []*models.ExecutionLog

	err := r.p.readJSON(executionLogsDir, entry.ExecutionID, &logs)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return persistence.NewEntityError("AppendLog", "execution", entry.ExecutionID, err)
	}

	logs = append(logs, entry)

	return r.p.writeJSON(executionLogsDir, entry.ExecutionID, logs)
}

func (r *ExecutionRepository) Logs(_ context.Context, executionID string) ([]*models.ExecutionLog, error) {
	var logs []*models.ExecutionLog

	err := r.p.readJSON(executionLogsDir, executionID, &logs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.ExecutionLog{}, nil
		}

		return nil, persistence.NewEntityError("Logs", "execution", executionID, err)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})

	return logs, nil
}
