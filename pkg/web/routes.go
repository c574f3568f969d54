package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp builds the HTTP application serving handlers.
func NewApp(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	Register(app, handlers)

	return app
}

// Register mounts the API routes on router.
func Register(router fiber.Router, handlers *APIHandlers) {
	router.Get("/health", handlers.HealthCheck)
	router.Get("/nodes", handlers.GetNodeTypes)

	conversations := router.Group("/conversations")
	conversations.Post("/:id/start", handlers.StartConversation)
	conversations.Post("/:id/messages", handlers.ReceiveMessage)
	conversations.Get("/:id/wait", handlers.GetPendingWait)
	conversations.Delete("/:id/wait", handlers.CancelPendingWait)

	executions := router.Group("/executions")
	executions.Get("/:id", handlers.GetExecution)
	executions.Get("/:id/logs", handlers.GetExecutionLogs)

	automations := router.Group("/automations")
	automations.Get("/", handlers.GetAutomations)
	automations.Get("/:id", handlers.GetAutomation)
	automations.Put("/:id", handlers.PutAutomation)
}
