package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dukex/convoflow/pkg/dispatcher"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Dispatcher handles conversation events.
type Dispatcher interface {
	OnNewConversation(ctx context.Context, conversation dispatcher.Conversation, triggerData map[string]any) (*dispatcher.Report, error)
	OnMessageReceived(ctx context.Context, conversation dispatcher.Conversation, msg models.InboundMessage) (*dispatcher.Report, error)
	OnConversationClosed(ctx context.Context, conversationID, reason string) (bool, error)
}

// WaitLookup reads outstanding pending waits.
type WaitLookup interface {
	Get(conversationID string) (*models.PendingWait, bool)
	Len() int
}

// NodeCatalog lists node types and validates automations against them.
type NodeCatalog interface {
	GetAvailableNodes() []protocol.NodeFactory
	ValidateAutomation(automation *models.Automation) error
}

type APIHandlers struct {
	dispatcher  Dispatcher
	waits       WaitLookup
	catalog     NodeCatalog
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	dispatcher Dispatcher,
	waits WaitLookup,
	catalog NodeCatalog,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		dispatcher:  dispatcher,
		waits:       waits,
		catalog:     catalog,
		persistence: persistence,
		validator:   validator,
	}
}

func (h *APIHandlers) StartConversation(c fiber.Ctx) error {
	var req StartConversationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	report, err := h.dispatcher.OnNewConversation(c.Context(), dispatcher.Conversation{
		ID:        c.Params("id"),
		ChannelID: req.ChannelID,
		ContactID: req.ContactID,
	}, req.TriggerData)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(report)
}

func (h *APIHandlers) ReceiveMessage(c fiber.Ctx) error {
	var req MessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	report, err := h.dispatcher.OnMessageReceived(c.Context(), dispatcher.Conversation{
		ID:        c.Params("id"),
		ChannelID: req.ChannelID,
		ContactID: req.ContactID,
	}, models.InboundMessage{Text: req.Text, ButtonReply: req.ButtonReply})
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(report)
}

func (h *APIHandlers) GetPendingWait(c fiber.Ctx) error {
	wait, ok := h.waits.Get(c.Params("id"))
	if !ok {
		return notFound(c, "no pending wait for conversation")
	}

	return c.JSON(wait)
}

func (h *APIHandlers) CancelPendingWait(c fiber.Ctx) error {
	reason := c.Query("reason", "cancelled via API")

	cancelled, err := h.dispatcher.OnConversationClosed(c.Context(), c.Params("id"), reason)
	if err != nil {
		return internalError(c, err)
	}

	if !cancelled {
		return notFound(c, "no pending wait for conversation")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.persistence.Executions().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetExecutionLogs(c fiber.Ctx) error {
	id := c.Params("id")

	_, err := h.persistence.Executions().GetByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	logs, err := h.persistence.Executions().Logs(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if logs == nil {
		logs = []*models.ExecutionLog{}
	}

	return c.JSON(ExecutionLogsResponse{ExecutionID: id, Logs: logs})
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	automations, err := h.persistence.Automations().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"total_count": len(automations),
	})
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	automation, err := h.persistence.Automations().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(automation)
}

// PutAutomation stores an automation after checking its graph against the
// node catalog.
func (h *APIHandlers) PutAutomation(c fiber.Ctx) error {
	var automation models.Automation
	if err := c.Bind().JSON(&automation); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	automation.ID = c.Params("id")

	if err := h.validator.Struct(automation); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.catalog.ValidateAutomation(&automation); err != nil {
		return unprocessable(c, err.Error())
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	if err := h.persistence.Automations().Save(c.Context(), &automation); err != nil {
		return internalError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.catalog.GetAvailableNodes()

	nodeTypes := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		nodeTypes = append(nodeTypes, NodeTypeResponse{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(nodeTypes)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK
	database := "ok"

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
		database = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"database":      database,
			"pending_waits": h.waits.Len(),
		},
		"timestamp": time.Now().UTC(),
	})
}
