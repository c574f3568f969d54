package gateway

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/convoflow/pkg/events"
	"github.com/dukex/convoflow/pkg/mocks"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBusGateway_Sends(t *testing.T) {
	buttons := []models.Button{{ID: "b1", Text: "Yes"}}
	media := models.MediaAttachment{Type: "image", URL: "https://cdn.example.com/a.png"}

	tests := []struct {
		name  string
		send  func(g *BusGateway) (string, error)
		check func(t *testing.T, msg events.MessageOutbound)
	}{
		{
			name: "text",
			send: func(g *BusGateway) (string, error) { return g.SendText(t.Context(), "+55", "hi", "ch-1") },
			check: func(t *testing.T, msg events.MessageOutbound) {
				assert.Equal(t, events.OutboundText, msg.Kind)
				assert.Equal(t, "hi", msg.Text)
			},
		},
		{
			name: "interactive",
			send: func(g *BusGateway) (string, error) {
				return g.SendInteractive(t.Context(), "+55", "ok?", buttons, "ch-1")
			},
			check: func(t *testing.T, msg events.MessageOutbound) {
				assert.Equal(t, events.OutboundInteractive, msg.Kind)
				assert.Equal(t, buttons, msg.Buttons)
			},
		},
		{
			name: "template",
			send: func(g *BusGateway) (string, error) {
				return g.SendTemplate(t.Context(), "+55", "welcome", []string{"Ana"}, "ch-1")
			},
			check: func(t *testing.T, msg events.MessageOutbound) {
				assert.Equal(t, events.OutboundTemplate, msg.Kind)
				assert.Equal(t, "welcome", msg.TemplateName)
				assert.Equal(t, []string{"Ana"}, msg.Params)
			},
		},
		{
			name: "media",
			send: func(g *BusGateway) (string, error) {
				return g.SendMedia(t.Context(), "+55", media, "look", "ch-1")
			},
			check: func(t *testing.T, msg events.MessageOutbound) {
				assert.Equal(t, events.OutboundMedia, msg.Kind)
				assert.Equal(t, &media, msg.Media)
				assert.Equal(t, "look", msg.Text)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &mocks.MockEventBus{}
			bus.On("GenerateID").Return("01J")

			var published events.MessageOutbound
			bus.On("Publish", mock.Anything, "+55", mock.AnythingOfType("events.MessageOutbound")).
				Run(func(args mock.Arguments) { published = args.Get(2).(events.MessageOutbound) }).
				Return(nil)

			id, err := tt.send(NewBusGateway(bus, slog.Default()))
			require.NoError(t, err)
			assert.Equal(t, "out-01J", id)
			assert.Equal(t, id, published.MessageID)
			assert.Equal(t, "ch-1", published.ChannelID)
			assert.Equal(t, events.MessageOutboundEvent, published.Type)
			tt.check(t, published)
		})
	}
}

func TestBusGateway_Errors(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("01J")
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	gateway := NewBusGateway(bus, slog.Default())

	_, err := gateway.SendText(t.Context(), "", "hi", "ch-1")
	assert.ErrorContains(t, err, "without a phone number")

	_, err = gateway.SendText(t.Context(), "+55", "hi", "ch-1")
	assert.ErrorContains(t, err, "broker down")
}
