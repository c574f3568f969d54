package dispatcher

import (
	"context"
	"fmt"

	"github.com/dukex/convoflow/pkg/eventbus"
	"github.com/dukex/convoflow/pkg/events"
)

// Subscribe registers the dispatcher for inbound conversation events.
func (d *Dispatcher) Subscribe(bus eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.ConversationStartedEvent: d.handleConversationStarted,
		events.MessageReceivedEvent:     d.handleMessageReceived,
		events.ConversationClosedEvent:  d.handleConversationClosed,
	}

	for eventType, handler := range handlers {
		err := bus.Handle(eventType, handler)
		if err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", eventType, err)
		}
	}

	return nil
}

// Automation failures end up in the report; only lookup errors nack the event.
func (d *Dispatcher) handleConversationStarted(ctx context.Context, event any) error {
	started, ok := event.(*events.ConversationStarted)
	if !ok {
		return fmt.Errorf("%w: %T", errUnexpectedEvent, event)
	}

	_, err := d.OnNewConversation(ctx, Conversation{
		ID:        started.ConversationID,
		ChannelID: started.ChannelID,
		ContactID: started.ContactID,
	}, started.TriggerData)

	return err
}

func (d *Dispatcher) handleMessageReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.MessageReceived)
	if !ok {
		return fmt.Errorf("%w: %T", errUnexpectedEvent, event)
	}

	_, err := d.OnMessageReceived(ctx, Conversation{
		ID:        received.ConversationID,
		ChannelID: received.ChannelID,
		ContactID: received.ContactID,
	}, received.Message())

	return err
}

func (d *Dispatcher) handleConversationClosed(ctx context.Context, event any) error {
	closed, ok := event.(*events.ConversationClosed)
	if !ok {
		return fmt.Errorf("%w: %T", errUnexpectedEvent, event)
	}

	_, err := d.OnConversationClosed(ctx, closed.ConversationID, closed.Reason)

	return err
}
