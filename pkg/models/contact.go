package models

import "time"

type Contact struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone"`
}

type ConversationStatus string

const (
	ConversationOpen     ConversationStatus = "open"
	ConversationAssigned ConversationStatus = "assigned"
	ConversationClosed   ConversationStatus = "closed"
)

type Conversation struct {
	ID              string             `json:"id"`
	ChannelID       string             `json:"channel_id"`
	ContactID       string             `json:"contact_id"`
	AssignedTo      string             `json:"assigned_to,omitempty"`
	Status          ConversationStatus `json:"status"`
	LastMessageAt   *time.Time         `json:"last_message_at,omitempty"`
	LastMessageText string             `json:"last_message_text,omitempty"`
}

// ConversationUpdate carries a partial update; nil fields are left untouched.
type ConversationUpdate struct {
	AssignedTo      *string
	Status          *ConversationStatus
	LastMessageAt   *time.Time
	LastMessageText *string
}

// Apply copies the set fields of u onto c.
func (u ConversationUpdate) Apply(c *Conversation) {
	if u.AssignedTo != nil {
		c.AssignedTo = *u.AssignedTo
	}

	if u.Status != nil {
		c.Status = *u.Status
	}

	if u.LastMessageAt != nil {
		t := *u.LastMessageAt
		c.LastMessageAt = &t
	}

	if u.LastMessageText != nil {
		c.LastMessageText = *u.LastMessageText
	}
}

// Template is an approved WhatsApp message template owned by a channel.
type Template struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	Language  string `json:"language,omitempty"`
	Body      string `json:"body,omitempty"`
}

// ButtonReply is a structured reply to an interactive message.
type ButtonReply struct {
	ID    string `json:"id"    validate:"required"`
	Title string `json:"title"`
}

// InboundMessage is a message received from a contact.
type InboundMessage struct {
	Text        string       `json:"text"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
}
