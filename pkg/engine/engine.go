// Package engine runs automation executions: it walks the node graph,
// parks executions on ask_question and delay nodes and brings them back when
// the reply arrives, the timer fires or the wait expires.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/otelhelper"
	"github.com/dukex/convoflow/pkg/pending"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/scheduler"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result texts stored on finished executions.
const (
	ResultCompleted         = "Completed successfully"
	ResultNoStartNode       = "No start node found"
	ResultNoAlternativePath = "Condition not met and no alternative path"
	ResultTimedOut          = "Timed out waiting for response"
	ResultInterrupted       = "Interrupted by process restart"
	cancelledPrefix         = "Cancelled: "
)

const (
	DefaultWaitTimeout = 30 * time.Minute
	DefaultMaxSteps    = 500
)

var (
	ErrNoStartNode       = errors.New("no start node found")
	ErrExecutionFinished = errors.New("execution already finished")
	ErrStepLimit         = errors.New("step limit exceeded")
)

// FanOutMode decides which targets a non-condition node with several
// outgoing edges continues to.
type FanOutMode string

const (
	// FanOutAll visits every target in edge order.
	FanOutAll FanOutMode = "all"
	// FanOutFirst follows the first edge only.
	FanOutFirst FanOutMode = "first"
)

func ParseFanOutMode(value string) (FanOutMode, error) {
	switch mode := FanOutMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "", FanOutAll:
		return FanOutAll, nil
	case FanOutFirst:
		return FanOutFirst, nil
	default:
		return "", fmt.Errorf("unknown fan-out mode %q", value)
	}
}

// NodeError is the failure of a single node attempt.
type NodeError struct {
	NodeID   string
	NodeType models.NodeType
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s) failed: %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// NodeCreator builds executable nodes from their definitions.
type NodeCreator interface {
	CreateNode(ctx context.Context, node *models.Node) (protocol.Node, error)
}

// Dependencies are the collaborators of the engine.
type Dependencies struct {
	Automations persistence.AutomationRepository
	Executions  persistence.ExecutionRepository
	Nodes       NodeCreator
	Waits       *pending.Registry
	Timers      *scheduler.Timers
	Notifier    protocol.Notifier
	Tracer      trace.Tracer
	Logger      *slog.Logger
}

// Config tunes the engine. Zero values select the defaults.
type Config struct {
	FanOut      FanOutMode
	WaitTimeout time.Duration
	MaxSteps    int
	Now         func() time.Time
}

type Engine struct {
	automations persistence.AutomationRepository
	executions  persistence.ExecutionRepository
	nodes       NodeCreator
	waits       *pending.Registry
	timers      *scheduler.Timers
	notifier    protocol.Notifier
	tracer      trace.Tracer
	logger      *slog.Logger

	fanOut      FanOutMode
	waitTimeout time.Duration
	maxSteps    int
	now         func() time.Time

	locks  *keyedMutex
	delays delaySet
}

func NewEngine(deps Dependencies, config Config) *Engine {
	e := &Engine{
		automations: deps.Automations,
		executions:  deps.Executions,
		nodes:       deps.Nodes,
		waits:       deps.Waits,
		timers:      deps.Timers,
		notifier:    deps.Notifier,
		tracer:      deps.Tracer,
		logger:      deps.Logger.With("module", "engine"),
		fanOut:      config.FanOut,
		waitTimeout: config.WaitTimeout,
		maxSteps:    config.MaxSteps,
		now:         config.Now,
		locks:       newKeyedMutex(),
	}

	if e.timers == nil {
		e.timers = scheduler.NewTimers()
	}

	if e.notifier == nil {
		e.notifier = discardNotifier{}
	}

	if e.tracer == nil {
		e.tracer = otelhelper.NoopTracer()
	}

	if e.fanOut == "" {
		e.fanOut = FanOutAll
	}

	if e.waitTimeout <= 0 {
		e.waitTimeout = DefaultWaitTimeout
	}

	if e.maxSteps <= 0 {
		e.maxSteps = DefaultMaxSteps
	}

	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}

	return e
}

// WaitTimeout returns the age after which a pending wait expires.
func (e *Engine) WaitTimeout() time.Duration {
	return e.waitTimeout
}

// Start runs a freshly created execution from the start node of its
// automation until it finishes or suspends. Node failures end the execution
// as failed and are not returned; errors loading the execution or the
// automation are.
func (e *Engine) Start(ctx context.Context, executionID string) (*models.Execution, error) {
	unlock := e.locks.Lock(executionID)
	defer unlock()

	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		return execution, fmt.Errorf("%w: %s", ErrExecutionFinished, executionID)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "execution.start",
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.AutomationIDKey, execution.AutomationID),
		attribute.String(otelhelper.ConversationIDKey, execution.ConversationID),
	)
	defer span.End()

	logger := e.executionLogger(execution)

	automation, err := e.automations.GetByID(ctx, execution.AutomationID)
	if err != nil {
		err = fmt.Errorf("failed to load automation %s: %w", execution.AutomationID, err)
		otelhelper.SetError(span, err)
		e.fail(ctx, execution, err.Error(), protocol.LifecycleFailed, nil)

		return execution, err
	}

	err = e.automations.IncrementExecutionCount(ctx, automation.ID, e.now())
	if err != nil {
		err = fmt.Errorf("failed to increment execution count: %w", err)
		otelhelper.SetError(span, err)
		e.fail(ctx, execution, err.Error(), protocol.LifecycleFailed, nil)

		return execution, err
	}

	execution.Variables = initialVariables(execution)
	execution.Status = models.ExecutionRunning
	execution.UpdatedAt = e.now()

	err = e.executions.Save(ctx, execution)
	if err != nil {
		err = fmt.Errorf("failed to save execution: %w", err)
		otelhelper.SetError(span, err)
		e.fail(ctx, execution, err.Error(), protocol.LifecycleFailed, nil)

		return execution, err
	}

	e.notifier.Lifecycle(ctx, protocol.LifecycleStarted, execution, map[string]any{"automation_name": automation.Name})
	logger.InfoContext(ctx, "Starting execution", "automation_name", automation.Name)

	start := automation.StartNode()
	if start == nil {
		logger.WarnContext(ctx, "Automation has no start node")
		e.complete(ctx, execution, models.ExecutionCompleted, ResultNoStartNode, protocol.LifecycleCompleted, nil)

		return execution, nil
	}

	r := e.newRun(execution, automation, logger)
	err = e.executeNode(ctx, r, start)
	e.finish(ctx, r, err)

	return execution, nil
}

// Resume continues the execution parked on conversationID with msg as the
// answer. It returns false when no execution was waiting.
func (e *Engine) Resume(ctx context.Context, conversationID string, msg models.InboundMessage) (bool, error) {
	wait, ok := e.waits.Take(ctx, conversationID)
	if !ok {
		return false, nil
	}

	unlock := e.locks.Lock(wait.ExecutionID)
	defer unlock()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "execution.resume",
		attribute.String(otelhelper.ExecutionIDKey, wait.ExecutionID),
		attribute.String(otelhelper.AutomationIDKey, wait.AutomationID),
		attribute.String(otelhelper.ConversationIDKey, conversationID),
		attribute.String(otelhelper.NodeIDKey, wait.NodeID),
	)
	defer span.End()

	execution, err := e.executions.GetByID(ctx, wait.ExecutionID)
	if err != nil {
		err = fmt.Errorf("failed to load execution %s: %w", wait.ExecutionID, err)
		otelhelper.SetError(span, err)

		return true, err
	}

	logger := e.executionLogger(execution)

	if execution.IsTerminal() {
		logger.WarnContext(ctx, "Discarding pending wait of finished execution", "status", execution.Status)

		return true, nil
	}

	automation, err := e.automations.GetByID(ctx, execution.AutomationID)
	if err != nil {
		err = fmt.Errorf("failed to load automation %s: %w", execution.AutomationID, err)
		otelhelper.SetError(span, err)
		e.fail(ctx, execution, err.Error(), protocol.LifecycleFailed, nil)

		return true, err
	}

	answer := pending.ResolveAnswer(wait, msg)

	if execution.Variables == nil {
		execution.Variables = wait.Variables
	}

	if execution.Variables == nil {
		execution.Variables = make(map[string]any)
	}

	pending.Apply(execution.Variables, wait, answer)

	lastMessage := strings.TrimSpace(msg.Text)
	if lastMessage == "" {
		lastMessage = answer.Text
	}

	execution.Variables[models.VarLastUserMessage] = lastMessage
	execution.CurrentNodeID = wait.NodeID
	execution.Status = e.suspendedStatus(execution.ID)
	execution.UpdatedAt = e.now()

	err = e.executions.Save(ctx, execution)
	if err != nil {
		err = fmt.Errorf("failed to save execution: %w", err)
		otelhelper.SetError(span, err)

		return true, err
	}

	details := map[string]any{"node_id": wait.NodeID, "answer": answer.Text}
	if answer.ButtonID != "" {
		details["button_id"] = answer.ButtonID
	}

	e.notifier.Lifecycle(ctx, protocol.LifecycleResumed, execution, details)
	logger.InfoContext(ctx, "Resuming execution", "node_id", wait.NodeID, "button_id", answer.ButtonID)

	node := automation.NodeByID(wait.NodeID)
	if node == nil {
		e.fail(ctx, execution, fmt.Sprintf("node %s no longer exists in automation %s", wait.NodeID, automation.ID),
			protocol.LifecycleFailed, nil)

		return true, nil
	}

	r := e.newRun(execution, automation, logger)
	err = e.follow(ctx, r, node, nil)
	e.finish(ctx, r, err)

	return true, nil
}

// CompleteExecution moves an execution to a terminal status. Calling it on
// an already finished execution overwrites status and result.
func (e *Engine) CompleteExecution(ctx context.Context, executionID string, status models.ExecutionStatus, result string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	unlock := e.locks.Lock(executionID)
	defer unlock()

	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	kind := protocol.LifecycleCompleted
	if status == models.ExecutionFailed {
		kind = protocol.LifecycleFailed
	}

	e.release(ctx, execution)

	return e.complete(ctx, execution, status, result, kind, nil)
}

// Cancel fails the execution waiting on conversationID. It returns false
// when the conversation had no pending wait.
func (e *Engine) Cancel(ctx context.Context, conversationID, reason string) (bool, error) {
	wait, ok := e.waits.Take(ctx, conversationID)
	if !ok {
		return false, nil
	}

	err := e.cancel(ctx, wait.ExecutionID, reason)
	if errors.Is(err, ErrExecutionFinished) {
		return false, nil
	}

	return err == nil, err
}

// CancelExecution fails a running or paused execution, dropping its pending
// wait and delay timers.
func (e *Engine) CancelExecution(ctx context.Context, executionID, reason string) error {
	return e.cancel(ctx, executionID, reason)
}

func (e *Engine) cancel(ctx context.Context, executionID, reason string) error {
	unlock := e.locks.Lock(executionID)
	defer unlock()

	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrExecutionFinished, executionID)
	}

	e.release(ctx, execution)
	e.executionLogger(execution).InfoContext(ctx, "Cancelling execution", "reason", reason)

	return e.complete(ctx, execution, models.ExecutionFailed, cancelledPrefix+reason,
		protocol.LifecycleCancelled, map[string]any{"reason": reason})
}

// release drops the delay timers and the pending wait held by execution.
func (e *Engine) release(ctx context.Context, execution *models.Execution) {
	e.timers.Cancel(execution.ID)
	e.delays.clear(execution.ID)
	execution.ResumeAt = nil

	if execution.ConversationID == "" {
		return
	}

	wait, ok := e.waits.Get(execution.ConversationID)
	if ok && wait.ExecutionID == execution.ID {
		_, _ = e.waits.Take(ctx, execution.ConversationID)
	}
}

// suspendedStatus is the status of a non-terminal execution between walks.
func (e *Engine) suspendedStatus(executionID string) models.ExecutionStatus {
	if e.waits.HasExecution(executionID) {
		return models.ExecutionPaused
	}

	return models.ExecutionRunning
}

func (e *Engine) complete(ctx context.Context, execution *models.Execution, status models.ExecutionStatus, result string,
	kind protocol.LifecycleKind, details map[string]any,
) error {
	persistence.ApplyStatus(execution, status, result, e.now())

	err := e.executions.Save(ctx, execution)
	if err != nil {
		e.executionLogger(execution).ErrorContext(ctx, "Failed to save finished execution", "status", status, "error", err)

		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	e.executionLogger(execution).InfoContext(ctx, "Execution finished", "status", status, "result", result)
	e.notifier.Lifecycle(ctx, kind, execution, details)

	return nil
}

func (e *Engine) fail(ctx context.Context, execution *models.Execution, result string, kind protocol.LifecycleKind, details map[string]any) {
	e.release(ctx, execution)
	_ = e.complete(ctx, execution, models.ExecutionFailed, result, kind, details)
}

func (e *Engine) executionLogger(execution *models.Execution) *slog.Logger {
	return e.logger.With(
		"execution_id", execution.ID,
		"automation_id", execution.AutomationID,
		"conversation_id", execution.ConversationID,
	)
}

// initialVariables merges the trigger data with the contact and
// conversation ids. A message text in the trigger data becomes
// lastUserMessage.
func initialVariables(execution *models.Execution) map[string]any {
	vars := make(map[string]any, len(execution.Variables)+len(execution.TriggerData)+3)

	for k, v := range execution.Variables {
		vars[k] = v
	}

	for k, v := range execution.TriggerData {
		vars[k] = v
	}

	vars[models.VarContactID] = execution.ContactID
	if execution.ConversationID != "" {
		vars[models.VarConversationID] = execution.ConversationID
	}

	if text, ok := execution.TriggerData["message"].(string); ok {
		vars[models.VarLastUserMessage] = text
	}

	return vars
}

type discardNotifier struct{}

func (discardNotifier) Lifecycle(context.Context, protocol.LifecycleKind, *models.Execution, map[string]any) {
}
func (discardNotifier) MessageSent(context.Context, protocol.OutboundMessage) {}
