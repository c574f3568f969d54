package models

import "time"

// ExecutionStatus is the lifecycle state of an execution.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionPaused    ExecutionStatus = "paused"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether no further transition is expected from s.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// Execution is one run of an automation for a (contact, conversation) pair.
type Execution struct {
	ID             string          `json:"id"                        validate:"required"`
	AutomationID   string          `json:"automation_id"             validate:"required"`
	ContactID      string          `json:"contact_id"                validate:"required"`
	ConversationID string          `json:"conversation_id,omitempty"`
	ChannelID      string          `json:"channel_id"`
	Status         ExecutionStatus `json:"status"                    validate:"required,oneof=running paused completed failed"`
	Variables      map[string]any  `json:"variables,omitempty"`
	TriggerData    map[string]any  `json:"trigger_data,omitempty"`
	Result         string          `json:"result,omitempty"`
	// CurrentNodeID is the last node the walker executed or parked on.
	CurrentNodeID string `json:"current_node_id,omitempty"`
	// ResumeAt is set while a delay node holds the execution.
	ResumeAt    *time.Time `json:"resume_at,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the execution is completed or failed.
func (e *Execution) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// Context builds the runtime context for node executors.
func (e *Execution) Context() *ExecutionContext {
	vars := make(map[string]any, len(e.Variables))
	for k, v := range e.Variables {
		vars[k] = v
	}

	return &ExecutionContext{
		ID:             e.ID,
		AutomationID:   e.AutomationID,
		ContactID:      e.ContactID,
		ConversationID: e.ConversationID,
		ChannelID:      e.ChannelID,
		TriggerData:    e.TriggerData,
		Variables:      vars,
	}
}

// LogStatus is the status of a single node attempt.
type LogStatus string

const (
	LogRunning            LogStatus = "running"
	LogCompleted          LogStatus = "completed"
	LogFailed             LogStatus = "failed"
	LogWaitingForResponse LogStatus = "waiting_for_response"
)

// ExecutionLog records one node attempt. Entries are append-only.
type ExecutionLog struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	NodeType    NodeType       `json:"node_type"`
	Status      LogStatus      `json:"status"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
