package httprequest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
	"github.com/RachidJedata/GraphOps/pkg/steps"
)

type statusRecorder struct {
	realtime.NopPublisher

	statuses []realtime.NodeStatus
}

func (r *statusRecorder) PublishStatus(_ context.Context, _ models.NodeType, event realtime.StatusEvent) {
	r.statuses = append(r.statuses, event.Status)
}

func newTestRuntime(recorder *statusRecorder) protocol.Runtime {
	return protocol.Runtime{
		ExecutionID: "exec-1",
		OwnerID:     "owner-1",
		Steps:       steps.NewMemoryFactory().ForExecution("exec-1"),
		Realtime:    recorder,
		Logger:      slog.Default(),
	}
}

func TestExecuteParsesJSONResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "name": "widget"}`))
	}))
	defer server.Close()

	recorder := &statusRecorder{}

	result, err := NewExecutor().Execute(context.Background(), protocol.ExecuteParams{
		NodeID: "node-1",
		Config: map[string]any{
			"endpoint":     server.URL,
			"variableName": "apiResult",
		},
		Context: models.WorkflowContext{},
		Runtime: newTestRuntime(recorder),
	})
	require.NoError(t, err)

	response, ok := result["apiResult"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, response["status"])
	assert.Equal(t, "OK", response["statusText"])
	assert.Equal(t, map[string]any{"id": float64(7), "name": "widget"}, response["data"])
	assert.Equal(t, []realtime.NodeStatus{realtime.NodeStatusLoading, realtime.NodeStatusSuccess}, recorder.statuses)
}

func TestExecuteKeepsNonJSONResponseAsText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	result, err := NewExecutor().Execute(context.Background(), protocol.ExecuteParams{
		NodeID:  "node-1",
		Config:  map[string]any{"endpoint": server.URL},
		Context: models.WorkflowContext{},
		Runtime: newTestRuntime(&statusRecorder{}),
	})
	require.NoError(t, err)

	response, ok := result[DefaultVariableName].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pong", response["data"])
}

func TestExecuteCompilesEndpointAndBodyTemplates(t *testing.T) {
	t.Parallel()

	var (
		receivedPath string
		receivedBody map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&receivedBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	result, err := NewExecutor().Execute(context.Background(), protocol.ExecuteParams{
		NodeID: "node-1",
		Config: map[string]any{
			"endpoint":     server.URL + "/users/{{userId}}",
			"method":       "post",
			"body":         `{"name": "{{userName}}"}`,
			"variableName": "created",
		},
		Context: models.WorkflowContext{"userId": "42", "userName": "Ada"},
		Runtime: newTestRuntime(&statusRecorder{}),
	})
	require.NoError(t, err)

	assert.Equal(t, "/users/42", receivedPath)
	assert.Equal(t, map[string]any{"name": "Ada"}, receivedBody)

	response, ok := result["created"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, response["status"])
}

func TestExecuteRejectsInvalidJSONBody(t *testing.T) {
	t.Parallel()

	recorder := &statusRecorder{}

	_, err := NewExecutor().Execute(context.Background(), protocol.ExecuteParams{
		NodeID: "node-1",
		Config: map[string]any{
			"endpoint": "http://localhost:1",
			"method":   "POST",
			"body":     `{"name": {{userName}}}`,
		},
		Context: models.WorkflowContext{"userName": "Ada"},
		Runtime: newTestRuntime(recorder),
	})
	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
	assert.Contains(t, err.Error(), "JSON format in body is invalid")
	assert.Equal(t, []realtime.NodeStatus{realtime.NodeStatusLoading, realtime.NodeStatusError}, recorder.statuses)
}

func TestExecuteRequiresEndpoint(t *testing.T) {
	t.Parallel()

	recorder := &statusRecorder{}

	_, err := NewExecutor().Execute(context.Background(), protocol.ExecuteParams{
		NodeID:  "node-1",
		Config:  map[string]any{"method": "GET"},
		Context: models.WorkflowContext{},
		Runtime: newTestRuntime(recorder),
	})
	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
	assert.Contains(t, err.Error(), "no endpoint configured")
	assert.Equal(t, []realtime.NodeStatus{realtime.NodeStatusLoading, realtime.NodeStatusError}, recorder.statuses)
}

func TestExecuteRequestIsDurable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	runtime := newTestRuntime(&statusRecorder{})
	params := protocol.ExecuteParams{
		NodeID:  "node-1",
		Config:  map[string]any{"endpoint": server.URL},
		Context: models.WorkflowContext{},
		Runtime: runtime,
	}

	executor := NewExecutor()

	first, err := executor.Execute(context.Background(), params)
	require.NoError(t, err)

	// A replay within the same execution reuses the recorded response.
	second, err := executor.Execute(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first[DefaultVariableName], second[DefaultVariableName])
}
