package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/convoflow/pkg/log"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/nodes"
	"github.com/dukex/convoflow/pkg/otelhelper"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// run is one pass of the walker over an execution, from a start, a resume
// or a fired timer until every reached branch ended or suspended.
type run struct {
	execution  *models.Execution
	automation *models.Automation
	execCtx    *models.ExecutionContext
	logger     *slog.Logger

	steps         int
	suspended     bool
	noAlternative bool
}

func (e *Engine) newRun(execution *models.Execution, automation *models.Automation, logger *slog.Logger) *run {
	if execution.Variables == nil {
		execution.Variables = make(map[string]any)
	}

	execCtx := execution.Context()
	// Executors write straight into the execution's bag.
	execCtx.Variables = execution.Variables

	return &run{
		execution:  execution,
		automation: automation,
		execCtx:    execCtx,
		logger:     logger,
	}
}

// executeNode runs node, then continues to its successors unless it
// suspended the branch.
func (e *Engine) executeNode(ctx context.Context, r *run, node *models.Node) error {
	r.steps++
	if r.steps > e.maxSteps {
		return fmt.Errorf("%w: more than %d nodes in one pass", ErrStepLimit, e.maxSteps)
	}

	outcome, err := e.runNode(ctx, r, node)
	if err != nil {
		return err
	}

	switch outcome.Suspend {
	case models.SuspendForResponse:
		r.suspended = true
		e.notifier.Lifecycle(ctx, protocol.LifecyclePaused, r.execution, map[string]any{"node_id": node.ID})

		return nil
	case models.SuspendForTimer:
		r.suspended = true
		e.scheduleDelay(ctx, r, node.ID, outcome)

		return nil
	}

	return e.follow(ctx, r, node, outcome.Branch)
}

// follow continues the walk after node. branch is the verdict of a
// condition node and nil for every other node.
func (e *Engine) follow(ctx context.Context, r *run, node *models.Node, branch *bool) error {
	edges := r.automation.OutgoingEdges(node.ID)

	if branch != nil {
		return e.routeFromCondition(ctx, r, node, edges, *branch)
	}

	if len(edges) > 1 && e.fanOut == FanOutFirst {
		edges = edges[:1]
	}

	for _, edge := range edges {
		err := e.visit(ctx, r, edge)
		if err != nil {
			return err
		}
	}

	return nil
}

// routeFromCondition takes the first edge when the condition held and the
// second one otherwise.
func (e *Engine) routeFromCondition(ctx context.Context, r *run, node *models.Node, edges []*models.Edge, met bool) error {
	if met {
		if len(edges) == 0 {
			return nil
		}

		return e.visit(ctx, r, edges[0])
	}

	if len(edges) < 2 {
		r.logger.InfoContext(ctx, "Condition not met and no alternative path", "node_id", node.ID)
		r.noAlternative = true

		return nil
	}

	return e.visit(ctx, r, edges[1])
}

func (e *Engine) visit(ctx context.Context, r *run, edge *models.Edge) error {
	target := r.automation.NodeByID(edge.TargetNodeID)
	if target == nil {
		return fmt.Errorf("edge %s points to unknown node %s", edge.ID, edge.TargetNodeID)
	}

	return e.executeNode(ctx, r, target)
}

// runNode performs one node attempt: one span, one log entry and a
// persisted snapshot of the variable bag.
func (e *Engine) runNode(ctx context.Context, r *run, node *models.Node) (*models.NodeOutcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "node."+string(node.Type),
		attribute.String(otelhelper.ExecutionIDKey, r.execution.ID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	)
	defer span.End()

	logger := r.logger.With("node_id", node.ID, "node_type", node.Type)
	logger.DebugContext(ctx, "Executing node")

	ctx = log.WithLogger(ctx, logger)

	r.execution.CurrentNodeID = node.ID

	outcome, err := e.execute(ctx, r, node)
	if err != nil {
		kind := nodes.ErrorKind(err)

		otelhelper.SetError(span, err, attribute.String("convoflow.error.kind", kind))
		logger.ErrorContext(ctx, "Node failed", "error", err, "error_kind", kind)

		e.appendLog(ctx, r, node, models.LogFailed, map[string]any{"error_kind": kind}, err.Error())
		e.notifier.Lifecycle(ctx, protocol.LifecycleNodeFailed, r.execution, map[string]any{
			"node_id":    node.ID,
			"node_type":  string(node.Type),
			"error":      err.Error(),
			"error_kind": kind,
		})

		return nil, &NodeError{NodeID: node.ID, NodeType: node.Type, Err: err}
	}

	status := models.LogCompleted
	if outcome.Suspend == models.SuspendForResponse {
		status = models.LogWaitingForResponse
		r.execution.Status = models.ExecutionPaused
	}

	otelhelper.SetOutcome(span, string(status))
	e.appendLog(ctx, r, node, status, outcome.Output, "")
	e.saveProgress(ctx, r)

	logger.DebugContext(ctx, "Node finished", "status", status)

	return outcome, nil
}

func (e *Engine) execute(ctx context.Context, r *run, node *models.Node) (*models.NodeOutcome, error) {
	executable, err := e.nodes.CreateNode(ctx, node)
	if err != nil {
		return nil, &nodes.ConfigurationError{NodeID: node.ID, Reason: err.Error()}
	}

	outcome, err := executable.Execute(ctx, r.execCtx)
	if err != nil {
		return nil, err
	}

	if outcome == nil {
		outcome = &models.NodeOutcome{}
	}

	return outcome, nil
}

// appendLog writes the log entry of a node attempt. A failed write is logged
// and does not stop the walk.
func (e *Engine) appendLog(ctx context.Context, r *run, node *models.Node, status models.LogStatus, output map[string]any, errText string) {
	entry := &models.ExecutionLog{
		ID:          uuid.NewString(),
		ExecutionID: r.execution.ID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		Status:      status,
		Input:       node.Data,
		Output:      output,
		Error:       errText,
		CreatedAt:   e.now(),
	}

	err := e.executions.AppendLog(ctx, entry)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append execution log", "node_id", node.ID, "error", err)
	}
}

// saveProgress persists the variable bag and the current node.
func (e *Engine) saveProgress(ctx context.Context, r *run) {
	r.execution.UpdatedAt = e.now()

	err := e.executions.Save(ctx, r.execution)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save execution progress", "node_id", r.execution.CurrentNodeID, "error", err)
	}
}

// finish settles the execution after a pass: failed on error, completed when
// nothing is left to wait for, parked otherwise.
func (e *Engine) finish(ctx context.Context, r *run, err error) {
	execution := r.execution

	if err != nil {
		r.logger.ErrorContext(ctx, "Execution failed", "error", err)

		details := map[string]any{}
		var nodeErr *NodeError
		if errors.As(err, &nodeErr) {
			details["node_id"] = nodeErr.NodeID
			details["error_kind"] = nodes.ErrorKind(nodeErr.Err)
		}

		e.fail(ctx, execution, err.Error(), protocol.LifecycleFailed, details)

		return
	}

	if r.suspended || e.waits.HasExecution(execution.ID) || e.hasDelays(execution.ID) {
		execution.Status = e.suspendedStatus(execution.ID)
		e.saveProgress(ctx, r)

		return
	}

	result := ResultCompleted
	if r.noAlternative {
		result = ResultNoAlternativePath
	}

	_ = e.complete(ctx, execution, models.ExecutionCompleted, result, protocol.LifecycleCompleted, nil)
}
