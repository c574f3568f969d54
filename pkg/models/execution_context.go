package models

// ExecutionContext is the runtime view of an execution handed to node executors.
// Variables is the execution's variable bag; executors may write into it.
type ExecutionContext struct {
	ID             string         `json:"id"`
	AutomationID   string         `json:"automation_id"`
	ContactID      string         `json:"contact_id"`
	ConversationID string         `json:"conversation_id,omitempty"`
	ChannelID      string         `json:"channel_id"`
	TriggerData    map[string]any `json:"trigger_data,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
}

// Well-known variable names.
const (
	VarContactID           = "contactId"
	VarConversationID      = "conversationId"
	VarLastUserMessage     = "lastUserMessage"
	VarLastConditionResult = "lastConditionResult"
	VarMatchedKeyword      = "matchedKeyword"
)

// SetVariable stores value in the variable bag, allocating it if needed.
func (c *ExecutionContext) SetVariable(name string, value any) {
	if c.Variables == nil {
		c.Variables = make(map[string]any)
	}

	c.Variables[name] = value
}

// StringVariable returns the named variable when it holds a string.
func (c *ExecutionContext) StringVariable(name string) string {
	if v, ok := c.Variables[name].(string); ok {
		return v
	}

	return ""
}

// CloneVariables returns a shallow copy of the variable bag.
func (c *ExecutionContext) CloneVariables() map[string]any {
	out := make(map[string]any, len(c.Variables))
	for k, v := range c.Variables {
		out[k] = v
	}

	return out
}
