// Package notifier broadcasts automation lifecycle and chat events to
// external listeners. Delivery is best effort, ordered, and never blocks the
// engine.
package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/convoflow/pkg/eventbus"
	"github.com/dukex/convoflow/pkg/events"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
)

var lifecycleEvents = map[protocol.LifecycleKind]events.EventType{
	protocol.LifecycleStarted:    events.ExecutionStartedEvent,
	protocol.LifecyclePaused:     events.ExecutionPausedEvent,
	protocol.LifecycleResumed:    events.ExecutionResumedEvent,
	protocol.LifecycleCompleted:  events.ExecutionCompletedEvent,
	protocol.LifecycleFailed:     events.ExecutionFailedEvent,
	protocol.LifecycleTimedOut:   events.ExecutionTimedOutEvent,
	protocol.LifecycleCancelled:  events.ExecutionCancelledEvent,
	protocol.LifecycleNodeFailed: events.NodeFailedEvent,
}

// DefaultQueueSize bounds the notifications waiting to be published.
const DefaultQueueSize = 1024

// BusNotifier publishes notifications on the event bus from a single
// background goroutine, in the order they were sent. When the queue is full
// new notifications are dropped. Publish errors are logged.
type BusNotifier struct {
	bus    eventbus.EventPublisher
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan notification
	done   chan struct{}
}

type notification struct {
	ctx   context.Context
	key   string
	event eventbus.Event
	// flushed is closed once every earlier notification was handled.
	flushed chan struct{}
}

func NewBusNotifier(bus eventbus.EventPublisher, logger *slog.Logger) *BusNotifier {
	return NewBusNotifierWithQueue(bus, logger, DefaultQueueSize)
}

func NewBusNotifierWithQueue(bus eventbus.EventPublisher, logger *slog.Logger, size int) *BusNotifier {
	n := &BusNotifier{
		bus:    bus,
		logger: logger.With("module", "notifier"),
		queue:  make(chan notification, size),
		done:   make(chan struct{}),
	}

	go n.run()

	return n
}

func (n *BusNotifier) Lifecycle(ctx context.Context, kind protocol.LifecycleKind, execution *models.Execution, details map[string]any) {
	eventType, ok := lifecycleEvents[kind]
	if !ok {
		n.logger.WarnContext(ctx, "Unknown lifecycle kind", "kind", kind)

		return
	}

	event := events.ExecutionLifecycle{
		BaseEvent:      events.NewBaseEvent(eventType),
		ExecutionID:    execution.ID,
		AutomationID:   execution.AutomationID,
		ConversationID: execution.ConversationID,
		ContactID:      execution.ContactID,
		Status:         execution.Status,
		Result:         execution.Result,
		Details:        details,
	}

	n.publish(ctx, execution.ConversationID, event)
}

func (n *BusNotifier) MessageSent(ctx context.Context, message protocol.OutboundMessage) {
	n.publish(ctx, message.ConversationID, events.MessageSent{
		BaseEvent:      events.NewBaseEvent(events.MessageSentEvent),
		ExecutionID:    message.ExecutionID,
		ConversationID: message.ConversationID,
		ContactID:      message.ContactID,
		ChannelID:      message.ChannelID,
		MessageID:      message.MessageID,
		Text:           message.Text,
		SentAt:         message.SentAt,
	})
}

// Wait blocks until every notification sent before the call was published.
func (n *BusNotifier) Wait() {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()

		return
	}

	flushed := make(chan struct{})
	n.queue <- notification{flushed: flushed}
	n.mu.RUnlock()

	<-flushed
}

// Close publishes what is still queued and stops the background goroutine.
// Later notifications are discarded.
func (n *BusNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	<-n.done
}

func (n *BusNotifier) publish(ctx context.Context, key string, event eventbus.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.WarnContext(ctx, "Notifier closed, dropping notification", "event_type", event.GetType())

		return
	}

	select {
	case n.queue <- notification{ctx: context.WithoutCancel(ctx), key: key, event: event}:
	default:
		n.logger.WarnContext(ctx, "Notification queue full, dropping notification", "event_type", event.GetType())
	}
}

func (n *BusNotifier) run() {
	defer close(n.done)

	for item := range n.queue {
		if item.flushed != nil {
			close(item.flushed)

			continue
		}

		err := n.bus.Publish(item.ctx, item.key, item.event)
		if err != nil {
			n.logger.ErrorContext(item.ctx, "Failed to publish notification", "event_type", item.event.GetType(), "error", err)

			continue
		}

		n.logger.DebugContext(item.ctx, "Published notification", "event_type", item.event.GetType())
	}
}
