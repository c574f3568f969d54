// Package gateway implements protocol.MessagingGateway on top of the event
// bus: every send becomes a message.outbound command for the delivery service.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/convoflow/pkg/eventbus"
	"github.com/dukex/convoflow/pkg/events"
	"github.com/dukex/convoflow/pkg/models"
)

// BusGateway publishes outbound messages keyed by phone number, so the
// messages of one contact keep their order.
type BusGateway struct {
	bus    eventbus.EventPublisher
	ids    func() string
	logger *slog.Logger
}

func NewBusGateway(bus eventbus.EventBus, logger *slog.Logger) *BusGateway {
	return &BusGateway{
		bus:    bus,
		ids:    bus.GenerateID,
		logger: logger.With("module", "gateway"),
	}
}

func (g *BusGateway) SendText(ctx context.Context, phone, text, channelID string) (string, error) {
	return g.publish(ctx, events.MessageOutbound{
		Kind:      events.OutboundText,
		ChannelID: channelID,
		Phone:     phone,
		Text:      text,
	})
}

func (g *BusGateway) SendInteractive(ctx context.Context, phone, text string, buttons []models.Button, channelID string) (string, error) {
	return g.publish(ctx, events.MessageOutbound{
		Kind:      events.OutboundInteractive,
		ChannelID: channelID,
		Phone:     phone,
		Text:      text,
		Buttons:   buttons,
	})
}

func (g *BusGateway) SendTemplate(ctx context.Context, phone, templateName string, params []string, channelID string) (string, error) {
	return g.publish(ctx, events.MessageOutbound{
		Kind:         events.OutboundTemplate,
		ChannelID:    channelID,
		Phone:        phone,
		TemplateName: templateName,
		Params:       params,
	})
}

func (g *BusGateway) SendMedia(ctx context.Context, phone string, media models.MediaAttachment, caption, channelID string) (string, error) {
	return g.publish(ctx, events.MessageOutbound{
		Kind:      events.OutboundMedia,
		ChannelID: channelID,
		Phone:     phone,
		Text:      caption,
		Media:     &media,
	})
}

func (g *BusGateway) publish(ctx context.Context, msg events.MessageOutbound) (string, error) {
	if msg.Phone == "" {
		return "", fmt.Errorf("cannot send %s message without a phone number", msg.Kind)
	}

	msg.BaseEvent = events.NewBaseEvent(events.MessageOutboundEvent)
	msg.MessageID = "out-" + g.ids()

	err := g.bus.Publish(ctx, msg.Phone, msg)
	if err != nil {
		return "", fmt.Errorf("failed to publish outbound %s message: %w", msg.Kind, err)
	}

	g.logger.DebugContext(ctx, "Published outbound message",
		"message_id", msg.MessageID, "kind", msg.Kind, "channel_id", msg.ChannelID)

	return msg.MessageID, nil
}
