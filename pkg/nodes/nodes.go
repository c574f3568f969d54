// Package nodes holds helpers shared by the node executor packages.
package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/convoflow/pkg/log"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

// Error kinds recorded in the output of failed node attempts.
const (
	ErrorKindConfiguration = "configuration"
	ErrorKindTransport     = "transport"
)

// ConfigurationError reports a node that cannot run because of missing or
// inconsistent data (no phone, unknown template, no conversation).
type ConfigurationError struct {
	NodeID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
}

func NewConfigurationError(nodeID, format string, args ...any) error {
	return &ConfigurationError{NodeID: nodeID, Reason: fmt.Sprintf(format, args...)}
}

func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError

	return errors.As(err, &configErr)
}

// ErrorKind classifies a node error. Anything that is not a configuration
// problem came from a collaborator call.
func ErrorKind(err error) string {
	if IsConfigurationError(err) {
		return ErrorKindConfiguration
	}

	return ErrorKindTransport
}

// Decode returns the typed payload of node.
func Decode[T any](node *models.Node) (*T, error) {
	data, err := models.DecodeNodeData(node)
	if err != nil {
		return nil, err
	}

	typed, ok := any(data).(*T)
	if !ok {
		return nil, NewConfigurationError(node.ID, "unexpected payload %T for %s node", data, node.Type)
	}

	return typed, nil
}

// ResolveContact loads the contact of the execution and requires a phone number.
func ResolveContact(ctx context.Context, deps protocol.Dependencies, execCtx *models.ExecutionContext, nodeID string) (*models.Contact, error) {
	if execCtx.ContactID == "" {
		return nil, NewConfigurationError(nodeID, "execution has no contact")
	}

	contact, err := deps.Contacts.GetContact(ctx, execCtx.ContactID)
	if err != nil {
		return nil, NewConfigurationError(nodeID, "contact %s not found: %v", execCtx.ContactID, err)
	}

	if contact.Phone == "" {
		return nil, NewConfigurationError(nodeID, "contact %s has no phone number", contact.ID)
	}

	return contact, nil
}

// ChannelID picks the channel to send on: the execution's, else the contact's.
func ChannelID(execCtx *models.ExecutionContext, contact *models.Contact) string {
	if execCtx.ChannelID != "" {
		return execCtx.ChannelID
	}

	return contact.ChannelID
}

// RecordOutbound updates the conversation preview and broadcasts the sent
// message. Failures are logged and never fail the node.
func RecordOutbound(ctx context.Context, deps protocol.Dependencies, execCtx *models.ExecutionContext, channelID, messageID, text string) {
	now := deps.Clock()

	if execCtx.ConversationID != "" && deps.Conversations != nil {
		err := deps.Conversations.UpdateConversation(ctx, execCtx.ConversationID, models.ConversationUpdate{
			LastMessageAt:   &now,
			LastMessageText: &text,
		})
		if err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Failed to update conversation preview",
				"conversation_id", execCtx.ConversationID, "error", err)
		}
	}

	if deps.Notifier != nil {
		deps.Notifier.MessageSent(ctx, protocol.OutboundMessage{
			ExecutionID:    execCtx.ID,
			ConversationID: execCtx.ConversationID,
			ContactID:      execCtx.ContactID,
			ChannelID:      channelID,
			MessageID:      messageID,
			Text:           text,
			SentAt:         now,
		})
	}
}
