package models

import "time"

// PendingWait is an execution parked at an ask_question node, waiting for
// the contact to answer.
type PendingWait struct {
	ID             string         `json:"id"`
	ExecutionID    string         `json:"execution_id"    validate:"required"`
	AutomationID   string         `json:"automation_id"   validate:"required"`
	NodeID         string         `json:"node_id"         validate:"required"`
	ConversationID string         `json:"conversation_id" validate:"required"`
	ContactID      string         `json:"contact_id"`
	ChannelID      string         `json:"channel_id"`
	Variables      map[string]any `json:"variables,omitempty"`
	SaveAs         string         `json:"save_as,omitempty"`
	Buttons        []Button       `json:"buttons,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Expired reports whether the wait is older than threshold at now.
func (w *PendingWait) Expired(now time.Time, threshold time.Duration) bool {
	return now.Sub(w.CreatedAt) > threshold
}
