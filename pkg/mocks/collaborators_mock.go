package mocks

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockContactDirectory is a mock implementation of protocol.ContactDirectory interface.
type MockContactDirectory struct {
	mock.Mock
}

func (m *MockContactDirectory) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Contact), args.Error(1)
}

// MockConversationStore is a mock implementation of protocol.ConversationStore interface.
type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationStore) UpdateConversation(ctx context.Context, conversationID string, update models.ConversationUpdate) error {
	args := m.Called(ctx, conversationID, update)

	return args.Error(0)
}

// MockTemplateLookup is a mock implementation of protocol.TemplateLookup interface.
type MockTemplateLookup struct {
	mock.Mock
}

func (m *MockTemplateLookup) FindTemplate(ctx context.Context, templateID, channelID string) (*models.Template, error) {
	args := m.Called(ctx, templateID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Template), args.Error(1)
}

// MockMessagingGateway is a mock implementation of protocol.MessagingGateway interface.
type MockMessagingGateway struct {
	mock.Mock
}

func (m *MockMessagingGateway) SendText(ctx context.Context, phone, text, channelID string) (string, error) {
	args := m.Called(ctx, phone, text, channelID)

	return args.String(0), args.Error(1)
}

func (m *MockMessagingGateway) SendInteractive(ctx context.Context, phone, text string, buttons []models.Button, channelID string) (string, error) {
	args := m.Called(ctx, phone, text, buttons, channelID)

	return args.String(0), args.Error(1)
}

func (m *MockMessagingGateway) SendTemplate(ctx context.Context, phone, templateName string, params []string, channelID string) (string, error) {
	args := m.Called(ctx, phone, templateName, params, channelID)

	return args.String(0), args.Error(1)
}

func (m *MockMessagingGateway) SendMedia(ctx context.Context, phone string, media models.MediaAttachment, caption, channelID string) (string, error) {
	args := m.Called(ctx, phone, media, caption, channelID)

	return args.String(0), args.Error(1)
}

// MockWaitRegistrar is a mock implementation of protocol.WaitRegistrar interface.
type MockWaitRegistrar struct {
	mock.Mock
}

func (m *MockWaitRegistrar) Register(ctx context.Context, wait *models.PendingWait) error {
	args := m.Called(ctx, wait)

	return args.Error(0)
}

func (m *MockWaitRegistrar) Remove(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)

	return args.Error(0)
}

// MockNotifier is a mock implementation of protocol.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Lifecycle(ctx context.Context, kind protocol.LifecycleKind, execution *models.Execution, details map[string]any) {
	m.Called(ctx, kind, execution, details)
}

func (m *MockNotifier) MessageSent(ctx context.Context, message protocol.OutboundMessage) {
	m.Called(ctx, message)
}
