package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachidJedata/GraphOps/pkg/eventbus"
	"github.com/RachidJedata/GraphOps/pkg/events"
	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence/file"
	"github.com/RachidJedata/GraphOps/pkg/registry"
	"github.com/RachidJedata/GraphOps/pkg/web"
)

// recordingBus captures published trigger events instead of delivering them.
type recordingBus struct {
	mu        sync.Mutex
	published []eventbus.Event
	ids       int
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = append(b.published, event)

	return nil
}

func (b *recordingBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }

func (b *recordingBus) Subscribe(context.Context) error { return nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) GenerateID() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ids++

	return "generated-" + strconv.Itoa(b.ids)
}

func (b *recordingBus) triggers(t *testing.T) []events.WorkflowTriggered {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	triggered := make([]events.WorkflowTriggered, 0, len(b.published))

	for _, event := range b.published {
		trigger, ok := event.(events.WorkflowTriggered)
		require.True(t, ok)
		triggered = append(triggered, trigger)
	}

	return triggered
}

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence, *recordingBus) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	bus := &recordingBus{}
	handlers := web.NewAPIHandlers(
		p,
		bus,
		validator.New(validator.WithRequiredStructEnabled()),
		registry.NewDefaultRegistry(slog.Default()),
		slog.Default(),
	)

	app := fiber.New()
	web.RegisterRoutes(app, handlers)

	return app, p, bus
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestCreateAndGetWorkflow(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/", web.CreateWorkflowRequest{
		Name:  "Test Workflow",
		Owner: "owner-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow

	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Test Workflow", created.Name)
	// A fresh canvas starts with the initial trigger node.
	require.Len(t, created.Nodes, 1)
	assert.Equal(t, models.NodeTypeInitial, created.Nodes[0].Type)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateWorkflowValidation(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/", map[string]any{"owner": "owner-1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflowNotFound(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateWorkflowValidatesNodeConfig(t *testing.T) {
	t.Parallel()

	app, p, _ := setupTestApp(t)
	ctx := context.Background()

	workflow := models.NewWorkflow("wf-1", "Editable", "owner-1")
	require.NoError(t, p.WorkflowRepository().Save(ctx, workflow))

	// HTTP request nodes need an endpoint.
	resp, err := app.Test(jsonRequest(t, http.MethodPut, "/workflows/wf-1", web.UpdateWorkflowRequest{
		Name: "Editable",
		Nodes: []*models.Node{
			{ID: "node-http", Type: models.NodeTypeHTTPRequest, Config: map[string]any{"method": "GET"}},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPut, "/workflows/wf-1", web.UpdateWorkflowRequest{
		Name: "Renamed",
		Nodes: []*models.Node{
			{ID: "node-http", Type: models.NodeTypeHTTPRequest, Config: map[string]any{"endpoint": "https://api.example.com"}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceNodeID: "node-http", TargetNodeID: "node-http"},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	loaded, err := p.WorkflowRepository().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	require.Len(t, loaded.Nodes, 1)
}

func TestExecuteWorkflowPublishesTrigger(t *testing.T) {
	t.Parallel()

	app, p, bus := setupTestApp(t)

	workflow := models.NewWorkflow("wf-1", "Runnable", "owner-1")
	require.NoError(t, p.WorkflowRepository().Save(context.Background(), workflow))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/wf-1/execute", map[string]any{"seed": "value"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack web.ExecuteWorkflowResponse

	decodeBody(t, resp, &ack)
	assert.Equal(t, "wf-1", ack.WorkflowID)
	assert.NotEmpty(t, ack.ExecutionID)

	triggers := bus.triggers(t)
	require.Len(t, triggers, 1)
	assert.Equal(t, ack.ExecutionID, triggers[0].ID)
	assert.Equal(t, "manual", triggers[0].TriggerSource)
	assert.Equal(t, "value", triggers[0].InitialData["seed"])
}

func TestExecuteWorkflowUnknownWorkflow(t *testing.T) {
	t.Parallel()

	app, _, bus := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/missing/execute", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, bus.triggers(t))
}

func TestGoogleFormWebhookNormalizesPayload(t *testing.T) {
	t.Parallel()

	app, _, bus := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/webhooks/google-form?workflowId=wf-1", map[string]any{
		"formId":          "form-9",
		"formTitle":       "Signup",
		"responseId":      "resp-1",
		"timestamp":       "2025-06-01T12:00:00Z",
		"respondentEmail": "a@example.com",
		"responses":       map[string]any{"q1": "yes"},
		"extra":           "kept in raw",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	triggers := bus.triggers(t)
	require.Len(t, triggers, 1)
	assert.Equal(t, "google-form", triggers[0].TriggerSource)

	form, ok := triggers[0].InitialData["googleForm"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "form-9", form["formId"])
	assert.Equal(t, "Signup", form["formTitle"])
	assert.Equal(t, "resp-1", form["responseId"])
	assert.Equal(t, "a@example.com", form["respondentEmail"])
	assert.Equal(t, map[string]any{"q1": "yes"}, form["responses"])

	raw, ok := form["raw"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "kept in raw", raw["extra"])
}

func TestGoogleFormWebhookRequiresWorkflowID(t *testing.T) {
	t.Parallel()

	app, _, bus := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/webhooks/google-form", map[string]any{"formId": "f"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, bus.triggers(t))
}

func TestStripeWebhookNormalizesPayload(t *testing.T) {
	t.Parallel()

	app, _, bus := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/webhooks/stripe?workflowId=wf-1", map[string]any{
		"id":       "evt_123",
		"type":     "checkout.session.completed",
		"created":  1717243200,
		"livemode": true,
		"data":     map[string]any{"object": map[string]any{"amount_total": 4200}},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	triggers := bus.triggers(t)
	require.Len(t, triggers, 1)
	assert.Equal(t, "stripe", triggers[0].TriggerSource)

	event, ok := triggers[0].InitialData["stripe"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "evt_123", event["eventId"])
	assert.Equal(t, "checkout.session.completed", event["eventType"])
	assert.EqualValues(t, 1717243200, event["timestamp"])
	assert.Equal(t, true, event["livemode"])

	raw, ok := event["raw"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 4200, raw["amount_total"])
}

func TestGetExecutionEndpoints(t *testing.T) {
	t.Parallel()

	app, p, _ := setupTestApp(t)
	ctx := context.Background()

	execution := models.NewExecution("exec-1", "wf-1")
	_, err := p.ExecutionRepository().Create(ctx, execution)
	require.NoError(t, err)
	require.NoError(t, p.ExecutionRepository().MarkSucceeded(ctx,
		"exec-1", models.WorkflowContext{"result": "ok"}, time.Now().UTC()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/executions/exec-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded models.Execution

	decodeBody(t, resp, &loaded)
	assert.Equal(t, models.ExecutionStatusSuccess, loaded.Status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workflows/wf-1/executions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Executions []*models.Execution `json:"executions"`
	}

	decodeBody(t, resp, &list)
	require.Len(t, list.Executions, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/executions/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
