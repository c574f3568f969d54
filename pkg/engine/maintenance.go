package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/dukex/convoflow/pkg/protocol"
)

// SweepExpired fails every execution whose pending wait is older than the
// wait timeout at now. Unexpired waits are left alone. It returns the number
// of evicted waits.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired := e.waits.TakeExpired(ctx, now, e.waitTimeout)
	if len(expired) == 0 {
		return 0, nil
	}

	var errs []error

	for _, wait := range expired {
		err := e.timeout(ctx, wait, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("execution %s: %w", wait.ExecutionID, err))
		}
	}

	e.logger.InfoContext(ctx, "Swept expired pending waits", "count", len(expired), "failures", len(errs))

	return len(expired), errors.Join(errs...)
}

func (e *Engine) timeout(ctx context.Context, wait *models.PendingWait, now time.Time) error {
	unlock := e.locks.Lock(wait.ExecutionID)
	defer unlock()

	execution, err := e.executions.GetByID(ctx, wait.ExecutionID)
	if err != nil {
		// A wait whose execution is gone stays evicted; any other failure
		// puts it back for the next sweep.
		if !persistence.IsExecutionNotFound(err) {
			e.restoreWait(ctx, wait)
		}

		return fmt.Errorf("failed to load execution: %w", err)
	}

	if execution.IsTerminal() {
		return nil
	}

	e.release(ctx, execution)

	err = e.complete(ctx, execution, models.ExecutionFailed, ResultTimedOut, protocol.LifecycleTimedOut, map[string]any{
		"node_id":        wait.NodeID,
		"waited_seconds": int64(now.Sub(wait.CreatedAt).Seconds()),
	})
	if err != nil {
		e.restoreWait(ctx, wait)

		return err
	}

	return nil
}

func (e *Engine) restoreWait(ctx context.Context, wait *models.PendingWait) {
	err := e.waits.Register(ctx, wait)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to restore expired pending wait",
			"execution_id", wait.ExecutionID,
			"conversation_id", wait.ConversationID,
			"error", err)
	}
}

// RecoveryReport summarises what Recover brought back.
type RecoveryReport struct {
	Waits       int
	Delays      int
	Interrupted int
}

// Recover restores the state a previous process left behind: pending waits
// are reloaded from the store and delay timers re-armed from ResumeAt.
// Running executions that hold neither and have not been touched for longer
// than the wait timeout are failed as interrupted.
func (e *Engine) Recover(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport

	waits, err := e.waits.Recover(ctx)
	if err != nil {
		return report, err
	}

	report.Waits = waits

	executions, err := e.executions.ListByStatus(ctx, models.ExecutionRunning, models.ExecutionPaused)
	if err != nil {
		return report, fmt.Errorf("failed to list unfinished executions: %w", err)
	}

	now := e.now()

	for _, execution := range executions {
		if execution.ResumeAt != nil && execution.CurrentNodeID != "" {
			e.armTimer(ctx, execution.ID, execution.CurrentNodeID, max(execution.ResumeAt.Sub(now), 0))
			report.Delays++

			continue
		}

		if execution.Status != models.ExecutionRunning || e.waits.HasExecution(execution.ID) {
			continue
		}

		if now.Sub(execution.UpdatedAt) <= e.waitTimeout {
			continue
		}

		unlock := e.locks.Lock(execution.ID)
		err := e.complete(ctx, execution, models.ExecutionFailed, ResultInterrupted, protocol.LifecycleFailed, nil)
		unlock()

		if err != nil {
			return report, err
		}

		report.Interrupted++
	}

	e.logger.InfoContext(ctx, "Recovered executions",
		"waits", report.Waits, "delays", report.Delays, "interrupted", report.Interrupted)

	return report, nil
}
