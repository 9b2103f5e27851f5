package web

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes mounts every API endpoint on the app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	hooks := app.Group("/webhooks")
	hooks.Post("/google-form", handlers.GoogleFormWebhook)
	hooks.Post("/stripe", handlers.StripeWebhook)

	app.Get("/executions/:id", handlers.GetExecution)
	app.Get("/health", handlers.HealthCheck)
}
