// Package httprequest provides the HTTP request node executor.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
	"github.com/RachidJedata/GraphOps/pkg/template"
)

// DefaultVariableName receives the response when the node author did not
// pick one.
const DefaultVariableName = "httpResponse"

const requestTimeout = 30 * time.Second

// Config defines the configuration for HTTP request nodes. Endpoint and Body
// may contain templates referencing prior node outputs.
type Config struct {
	Endpoint     string `json:"endpoint"`
	Method       string `json:"method"`
	Body         string `json:"body,omitempty"`
	VariableName string `json:"variableName,omitempty"`
}

func parseConfig(raw map[string]any) Config {
	cfg := Config{
		Method:       http.MethodGet,
		VariableName: DefaultVariableName,
	}

	if endpoint, ok := raw["endpoint"].(string); ok {
		cfg.Endpoint = endpoint
	}

	if method, ok := raw["method"].(string); ok && method != "" {
		cfg.Method = strings.ToUpper(method)
	}

	if body, ok := raw["body"].(string); ok {
		cfg.Body = body
	}

	if name, ok := raw["variableName"].(string); ok && name != "" {
		cfg.VariableName = name
	}

	return cfg
}

// bodyMethods are the methods a request body is sent with.
func bodyMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// Executor performs one HTTP call and stores {status, statusText, data}
// under the node's variable name.
type Executor struct {
	client *http.Client
}

func NewExecutor() *Executor {
	return &Executor{
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (e *Executor) Type() models.NodeType {
	return models.NodeTypeHTTPRequest
}

func (e *Executor) Execute(ctx context.Context, params protocol.ExecuteParams) (models.WorkflowContext, error) {
	rt := params.Runtime

	rt.Realtime.PublishStatus(ctx, e.Type(), realtime.StatusEvent{
		NodeID: params.NodeID,
		Status: realtime.NodeStatusLoading,
	})

	cfg := parseConfig(params.Config)
	if cfg.Endpoint == "" {
		return nil, e.fail(ctx, rt, params.NodeID, protocol.NonRetriablef("HTTP Request node: no endpoint configured"))
	}

	rt.Realtime.PublishContext(ctx, e.Type(), realtime.ContextEvent{
		NodeID:   params.NodeID,
		DataType: realtime.ContextDataInput,
		Data:     params.Context,
	})

	endpoint, err := template.Compile(cfg.Endpoint, params.Context)
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID, protocol.NonRetriablef("HTTP Request node: invalid endpoint template: %v", err))
	}

	var body string

	if bodyMethod(cfg.Method) && cfg.Body != "" {
		body, err = template.Compile(cfg.Body, params.Context)
		if err != nil {
			return nil, e.fail(ctx, rt, params.NodeID, protocol.NonRetriablef("HTTP Request node: invalid body template: %v", err))
		}

		// A body that is not valid JSON after compilation is a configuration
		// mistake, not a transient failure.
		if !json.Valid([]byte(body)) {
			return nil, e.fail(ctx, rt, params.NodeID, protocol.NonRetriablef("HTTP Request node: JSON format in body is invalid"))
		}
	}

	stepName := "http-request:" + params.NodeID

	result, err := rt.Steps.Run(ctx, stepName, func(ctx context.Context) (any, error) {
		return e.perform(ctx, cfg.Method, endpoint, body)
	})
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID, protocol.ClassifyExternal("HTTP Request node", err))
	}

	newContext := params.Context.With(cfg.VariableName, result)

	rt.Realtime.PublishContext(ctx, e.Type(), realtime.ContextEvent{
		NodeID:   params.NodeID,
		DataType: realtime.ContextDataOutput,
		Data:     newContext,
	})
	rt.Realtime.PublishStatus(ctx, e.Type(), realtime.StatusEvent{
		NodeID: params.NodeID,
		Status: realtime.NodeStatusSuccess,
	})

	return newContext, nil
}

func (e *Executor) perform(ctx context.Context, method, endpoint, body string) (map[string]any, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var data any = string(raw)

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var parsed any

		if err := json.Unmarshal(raw, &parsed); err == nil {
			data = parsed
		}
	}

	return map[string]any{
		"status":     resp.StatusCode,
		"statusText": http.StatusText(resp.StatusCode),
		"data":       data,
	}, nil
}

func (e *Executor) fail(ctx context.Context, rt protocol.Runtime, nodeID string, err error) error {
	rt.Realtime.PublishStatus(ctx, e.Type(), realtime.StatusEvent{
		NodeID: nodeID,
		Status: realtime.NodeStatusError,
		Error:  err.Error(),
	})

	return err
}
