package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/otelhelper"
	"github.com/dukex/convoflow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// delaySet tracks the delay nodes an execution is parked on until their
// continuation has run, including timers that already fired and are waiting
// for the execution lock.
type delaySet struct {
	mu      sync.Mutex
	pending map[string]map[string]struct{}
}

func (d *delaySet) add(executionID, nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		d.pending = make(map[string]map[string]struct{})
	}

	byNode, ok := d.pending[executionID]
	if !ok {
		byNode = make(map[string]struct{})
		d.pending[executionID] = byNode
	}

	byNode[nodeID] = struct{}{}
}

func (d *delaySet) done(executionID, nodeID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	byNode, ok := d.pending[executionID]
	if !ok {
		return false
	}

	_, ok = byNode[nodeID]
	delete(byNode, nodeID)

	if len(byNode) == 0 {
		delete(d.pending, executionID)
	}

	return ok
}

func (d *delaySet) clear(executionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pending, executionID)
}

func (d *delaySet) has(executionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending[executionID]) > 0
}

func (e *Engine) hasDelays(executionID string) bool {
	return e.delays.has(executionID)
}

// scheduleDelay parks the branch on a delay node and arms its timer.
func (e *Engine) scheduleDelay(ctx context.Context, r *run, nodeID string, outcome *models.NodeOutcome) {
	resumeAt := e.now().Add(outcome.Delay)
	r.execution.ResumeAt = &resumeAt
	e.saveProgress(ctx, r)

	r.logger.InfoContext(ctx, "Execution delayed", "node_id", nodeID, "resume_at", resumeAt)
	e.armTimer(ctx, r.execution.ID, nodeID, outcome.Delay)
}

func (e *Engine) armTimer(ctx context.Context, executionID, nodeID string, delay time.Duration) {
	e.delays.add(executionID, nodeID)

	scheduled := e.timers.Schedule(executionID, nodeID, delay, func() {
		e.onTimer(executionID, nodeID)
	})
	if !scheduled {
		e.delays.done(executionID, nodeID)
		e.logger.WarnContext(ctx, "Timers stopped, delay not scheduled", "execution_id", executionID, "node_id", nodeID)
	}
}

// onTimer continues an execution after its delay node. The automation is
// loaded again so edits made during the delay apply.
func (e *Engine) onTimer(executionID, nodeID string) {
	unlock := e.locks.Lock(executionID)
	defer unlock()

	if !e.delays.done(executionID, nodeID) {
		return
	}

	ctx, span := otelhelper.StartSpan(context.Background(), e.tracer, "execution.delay_elapsed",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
	)
	defer span.End()

	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)
		e.logger.ErrorContext(ctx, "Failed to load delayed execution", "execution_id", executionID, "error", err)

		return
	}

	if execution.IsTerminal() {
		return
	}

	logger := e.executionLogger(execution)

	automation, err := e.automations.GetByID(ctx, execution.AutomationID)
	if err != nil {
		err = fmt.Errorf("failed to load automation %s: %w", execution.AutomationID, err)
		otelhelper.SetError(span, err)
		e.fail(ctx, execution, err.Error(), protocol.LifecycleFailed, nil)

		return
	}

	node := automation.NodeByID(nodeID)
	if node == nil {
		e.fail(ctx, execution, fmt.Sprintf("node %s no longer exists in automation %s", nodeID, automation.ID),
			protocol.LifecycleFailed, nil)

		return
	}

	if !e.delays.has(executionID) {
		execution.ResumeAt = nil
	}

	execution.CurrentNodeID = nodeID
	execution.Status = e.suspendedStatus(executionID)

	e.notifier.Lifecycle(ctx, protocol.LifecycleResumed, execution, map[string]any{"node_id": nodeID, "reason": "delay_elapsed"})
	logger.InfoContext(ctx, "Delay elapsed", "node_id", nodeID)

	r := e.newRun(execution, automation, logger)
	e.saveProgress(ctx, r)

	err = e.follow(ctx, r, node, nil)
	e.finish(ctx, r, err)
}
