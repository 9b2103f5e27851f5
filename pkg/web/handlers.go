// Package web provides the HTTP trigger surface and REST endpoints for
// workflow and execution management.
package web

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/RachidJedata/GraphOps/pkg/eventbus"
	"github.com/RachidJedata/GraphOps/pkg/events"
	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
	"github.com/RachidJedata/GraphOps/pkg/registry"
)

type APIHandlers struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validator   *validator.Validate
	registry    *registry.Registry
	logger      *slog.Logger
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	validate *validator.Validate,
	reg *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		eventBus:    eventBus,
		validator:   validate,
		registry:    reg,
		logger:      logger,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.WorkflowRepository().Workflows(c.Context(), c.Query("owner"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	workflow := models.NewWorkflow(req.ID, req.Name, req.Owner)

	if err := h.persistence.WorkflowRepository().Save(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

// UpdateWorkflow replaces the workflow's name and graph wholesale. Node
// configurations are checked against their executor schemas before anything
// is written.
func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	var req UpdateWorkflowRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	for _, node := range req.Nodes {
		if err := h.registry.ValidateConfig(node.Type, node.Config); err != nil {
			return badRequest(c, err.Error())
		}
	}

	workflow.Name = req.Name
	workflow.Nodes = req.Nodes
	workflow.Connections = req.Connections

	if err := h.persistence.WorkflowRepository().Save(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.persistence.WorkflowRepository().Delete(c.Context(), c.Params("id")); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow queues a manual run. An optional JSON object body seeds
// the run context.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	workflowID := c.Params("id")

	if _, err := h.persistence.WorkflowRepository().GetByID(c.Context(), workflowID); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	initialData := map[string]any{}

	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &initialData); err != nil {
			return badRequest(c, "Seed data must be a JSON object")
		}
	}

	return h.trigger(c, workflowID, "manual", initialData)
}

// GoogleFormWebhook accepts a Google Forms submission and queues a run with
// the normalized form record seeded under the googleForm key.
func (h *APIHandlers) GoogleFormWebhook(c fiber.Ctx) error {
	workflowID := c.Query("workflowId")
	if workflowID == "" {
		return badRequest(c, "Missing required workflow id")
	}

	var payload googleFormPayload

	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid form payload: "+err.Error())
	}

	var raw map[string]any

	_ = json.Unmarshal(c.Body(), &raw)

	return h.trigger(c, workflowID, "google-form", map[string]any{
		"googleForm": map[string]any{
			"workflowId":      workflowID,
			"formId":          payload.FormID,
			"formTitle":       payload.FormTitle,
			"responseId":      payload.ResponseID,
			"timestamp":       payload.Timestamp,
			"respondentEmail": payload.RespondentEmail,
			"responses":       payload.Responses,
			"raw":             raw,
		},
	})
}

// StripeWebhook accepts a Stripe event and queues a run with the normalized
// event record seeded under the stripe key.
func (h *APIHandlers) StripeWebhook(c fiber.Ctx) error {
	workflowID := c.Query("workflowId")
	if workflowID == "" {
		return badRequest(c, "Missing required workflow id")
	}

	var payload stripePayload

	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid event payload: "+err.Error())
	}

	return h.trigger(c, workflowID, "stripe", map[string]any{
		"stripe": map[string]any{
			"eventId":   payload.ID,
			"eventType": payload.Type,
			"timestamp": payload.Created,
			"livemode":  payload.Livemode,
			"raw":       payload.Data.Object,
		},
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.persistence.ExecutionRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return notFound(c, "Execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.persistence.ExecutionRepository().ListByWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

// trigger publishes a WorkflowTriggered event. The event id doubles as the
// execution id the worker will create.
func (h *APIHandlers) trigger(c fiber.Ctx, workflowID, source string, initialData map[string]any) error {
	event := events.WorkflowTriggered{
		BaseEvent: events.BaseEvent{
			ID:         h.eventBus.GenerateID(),
			Type:       events.WorkflowTriggeredEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: workflowID,
		},
		TriggerSource: source,
		InitialData:   initialData,
	}

	if err := h.eventBus.Publish(c.Context(), workflowID, event); err != nil {
		return internalError(c, err)
	}

	h.logger.Info("Queued workflow execution",
		"workflow_id", workflowID, "execution_id", event.ID, "trigger_source", source)

	return c.Status(fiber.StatusAccepted).JSON(ExecuteWorkflowResponse{
		ExecutionID: event.ID,
		WorkflowID:  workflowID,
	})
}
