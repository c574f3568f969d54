// Package dispatcher turns conversation events into automation executions.
// Messages for a conversation that has an execution waiting for an answer
// resume that execution and never start new automations.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/otelhelper"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runner executes and resumes executions.
type Runner interface {
	Start(ctx context.Context, executionID string) (*models.Execution, error)
	Resume(ctx context.Context, conversationID string, msg models.InboundMessage) (bool, error)
	Cancel(ctx context.Context, conversationID, reason string) (bool, error)
}

// Outcome is what happened to one automation matched by a trigger.
type Outcome struct {
	AutomationID string                 `json:"automation_id"`
	ExecutionID  string                 `json:"execution_id,omitempty"`
	Status       models.ExecutionStatus `json:"status,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Report summarises the handling of one inbound event.
type Report struct {
	Resumed  bool      `json:"resumed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the outcomes that ended with an error.
func (r *Report) Failed() []Outcome {
	var failed []Outcome

	for _, outcome := range r.Outcomes {
		if outcome.Error != "" {
			failed = append(failed, outcome)
		}
	}

	return failed
}

type Dispatcher struct {
	automations persistence.AutomationRepository
	executions  persistence.ExecutionRepository
	runner      Runner
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

func NewDispatcher(automations persistence.AutomationRepository, executions persistence.ExecutionRepository,
	runner Runner, tracer trace.Tracer, logger *slog.Logger,
) *Dispatcher {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Dispatcher{
		automations: automations,
		executions:  executions,
		runner:      runner,
		tracer:      tracer,
		logger:      logger.With("module", "dispatcher"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Conversation identifies the conversation an event belongs to.
type Conversation struct {
	ID        string
	ChannelID string
	ContactID string
}

// OnNewConversation starts every active new_conversation automation of the
// channel. A failing automation does not stop the others; its error is
// recorded in the report.
func (d *Dispatcher) OnNewConversation(ctx context.Context, conversation Conversation, triggerData map[string]any) (*Report, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.new_conversation",
		attribute.String(otelhelper.ConversationIDKey, conversation.ID),
		attribute.String(otelhelper.ChannelIDKey, conversation.ChannelID),
		attribute.String(otelhelper.TriggerKey, string(models.TriggerNewConversation)),
	)
	defer span.End()

	automations, err := d.automations.FindActive(ctx, conversation.ChannelID, models.TriggerNewConversation)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to find automations: %w", err)
	}

	return &Report{Outcomes: d.startAll(ctx, automations, conversation, triggerData)}, nil
}

// OnMessageReceived resumes the execution waiting on the conversation, if
// any. Otherwise it starts every active message_received automation of the
// channel whose trigger keywords match the message.
func (d *Dispatcher) OnMessageReceived(ctx context.Context, conversation Conversation, msg models.InboundMessage) (*Report, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.message_received",
		attribute.String(otelhelper.ConversationIDKey, conversation.ID),
		attribute.String(otelhelper.ChannelIDKey, conversation.ChannelID),
		attribute.String(otelhelper.TriggerKey, string(models.TriggerMessageReceived)),
	)
	defer span.End()

	logger := d.logger.With("conversation_id", conversation.ID, "channel_id", conversation.ChannelID)

	resumed, err := d.runner.Resume(ctx, conversation.ID, msg)
	if resumed {
		report := &Report{Resumed: true}
		if err != nil {
			otelhelper.SetError(span, err)
			logger.ErrorContext(ctx, "Failed to resume execution", "error", err)
		}

		return report, nil
	}

	if err != nil {
		logger.ErrorContext(ctx, "Failed to check pending wait", "error", err)
	}

	automations, err := d.automations.FindActive(ctx, conversation.ChannelID, models.TriggerMessageReceived)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to find automations: %w", err)
	}

	matching := automations[:0:0]

	for _, automation := range automations {
		if automation.MatchesMessage(msg.Text) {
			matching = append(matching, automation)
		}
	}

	triggerData := map[string]any{"message": msg.Text}
	if msg.ButtonReply != nil {
		triggerData["button_id"] = msg.ButtonReply.ID
		triggerData["button_title"] = msg.ButtonReply.Title
	}

	return &Report{Outcomes: d.startAll(ctx, matching, conversation, triggerData)}, nil
}

// OnConversationClosed cancels the execution waiting on the conversation.
func (d *Dispatcher) OnConversationClosed(ctx context.Context, conversationID, reason string) (bool, error) {
	if reason == "" {
		reason = "conversation closed"
	}

	cancelled, err := d.runner.Cancel(ctx, conversationID, reason)
	if err != nil {
		return cancelled, fmt.Errorf("failed to cancel execution of conversation %s: %w", conversationID, err)
	}

	if cancelled {
		d.logger.InfoContext(ctx, "Cancelled waiting execution", "conversation_id", conversationID, "reason", reason)
	}

	return cancelled, nil
}

func (d *Dispatcher) startAll(ctx context.Context, automations []*models.Automation, conversation Conversation,
	triggerData map[string]any,
) []Outcome {
	outcomes := make([]Outcome, 0, len(automations))

	for _, automation := range automations {
		outcome := d.start(ctx, automation, conversation, triggerData)
		if outcome.Error != "" {
			d.logger.ErrorContext(ctx, "Automation failed",
				"automation_id", automation.ID, "execution_id", outcome.ExecutionID, "error", outcome.Error)
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (d *Dispatcher) start(ctx context.Context, automation *models.Automation, conversation Conversation,
	triggerData map[string]any,
) Outcome {
	outcome := Outcome{AutomationID: automation.ID}
	now := d.now()

	data := make(map[string]any, len(triggerData))
	for k, v := range triggerData {
		data[k] = v
	}

	execution := &models.Execution{
		ID:             uuid.NewString(),
		AutomationID:   automation.ID,
		ContactID:      conversation.ContactID,
		ConversationID: conversation.ID,
		ChannelID:      conversation.ChannelID,
		Status:         models.ExecutionRunning,
		TriggerData:    data,
		StartedAt:      now,
		UpdatedAt:      now,
	}

	err := d.executions.Create(ctx, execution)
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to create execution: %v", err)

		return outcome
	}

	outcome.ExecutionID = execution.ID
	outcome.Status = execution.Status

	started, err := d.runner.Start(ctx, execution.ID)
	if started != nil {
		outcome.Status = started.Status

		if started.Status == models.ExecutionFailed && err == nil {
			outcome.Error = started.Result
		}
	}

	if err != nil {
		outcome.Error = err.Error()
	}

	return outcome
}

var errUnexpectedEvent = errors.New("unexpected event payload")
