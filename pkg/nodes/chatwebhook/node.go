// Package chatwebhook provides the chat notification node executors. Discord
// and Slack share one executor: compile the message template, decode the HTML
// entities the template engine escaped, POST to the configured webhook URL and
// store the original template string under the node's variable name as a
// record of what was sent.
package chatwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
	"github.com/RachidJedata/GraphOps/pkg/template"
)

// discordMaxMessageLength is the hard limit Discord places on one message.
const discordMaxMessageLength = 2000

const requestTimeout = 30 * time.Second

// PayloadBuilder shapes the webhook body for one destination.
type PayloadBuilder func(message, username string) map[string]any

func discordPayload(message, username string) map[string]any {
	if len(message) > discordMaxMessageLength {
		message = message[:discordMaxMessageLength]
	}

	payload := map[string]any{"content": message}
	if username != "" {
		payload["username"] = username
	}

	return payload
}

func slackPayload(message, _ string) map[string]any {
	return map[string]any{"content": message}
}

// Config is the shared configuration of every chat webhook node type.
type Config struct {
	Content      string
	VariableName string
	WebhookURL   string
	Username     string
}

func parseConfig(raw map[string]any) Config {
	str := func(key string) string {
		v, _ := raw[key].(string)

		return v
	}

	return Config{
		Content:      str("content"),
		VariableName: str("variableName"),
		WebhookURL:   str("webhookUrl"),
		Username:     str("username"),
	}
}

// Executor posts one message to a chat webhook.
type Executor struct {
	nodeType models.NodeType
	label    string
	payload  PayloadBuilder
	client   *http.Client
}

func NewExecutor(nodeType models.NodeType, label string, payload PayloadBuilder) *Executor {
	return &Executor{
		nodeType: nodeType,
		label:    label,
		payload:  payload,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

func (e *Executor) Type() models.NodeType {
	return e.nodeType
}

func (e *Executor) Execute(ctx context.Context, params protocol.ExecuteParams) (models.WorkflowContext, error) {
	rt := params.Runtime

	rt.Realtime.PublishStatus(ctx, e.nodeType, realtime.StatusEvent{
		NodeID: params.NodeID,
		Status: realtime.NodeStatusLoading,
	})

	cfg := parseConfig(params.Config)

	if err := e.validate(cfg); err != nil {
		return nil, e.fail(ctx, rt, params.NodeID, err)
	}

	rt.Realtime.PublishContext(ctx, e.nodeType, realtime.ContextEvent{
		NodeID:   params.NodeID,
		DataType: realtime.ContextDataInput,
		Data:     params.Context,
	})

	compiled, err := template.Compile(cfg.Content, params.Context)
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID,
			protocol.NonRetriablef("%s node: invalid content template: %v", e.label, err))
	}

	// The template engine entity-escapes its output, which the chat service
	// would render literally.
	message := html.UnescapeString(compiled)

	username := ""

	if cfg.Username != "" {
		compiledName, err := template.Compile(cfg.Username, params.Context)
		if err != nil {
			return nil, e.fail(ctx, rt, params.NodeID,
				protocol.NonRetriablef("%s node: invalid username template: %v", e.label, err))
		}

		username = html.UnescapeString(compiledName)
	}

	stepName := "chat-webhook:" + params.NodeID

	_, err = rt.Steps.Run(ctx, stepName, func(ctx context.Context) (any, error) {
		return nil, e.post(ctx, cfg.WebhookURL, e.payload(message, username))
	})
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID, protocol.ClassifyExternal(e.label+" node", err))
	}

	// The variable records the template as authored, not the compiled message.
	newContext := params.Context.With(cfg.VariableName, cfg.Content)

	rt.Realtime.PublishStatus(ctx, e.nodeType, realtime.StatusEvent{
		NodeID: params.NodeID,
		Status: realtime.NodeStatusSuccess,
	})
	rt.Realtime.PublishContext(ctx, e.nodeType, realtime.ContextEvent{
		NodeID:   params.NodeID,
		DataType: realtime.ContextDataOutput,
		Data:     newContext,
	})

	return newContext, nil
}

func (e *Executor) fail(ctx context.Context, rt protocol.Runtime, nodeID string, err error) error {
	rt.Realtime.PublishStatus(ctx, e.nodeType, realtime.StatusEvent{
		NodeID: nodeID,
		Status: realtime.NodeStatusError,
		Error:  err.Error(),
	})

	return err
}

func (e *Executor) validate(cfg Config) error {
	switch {
	case cfg.Content == "":
		return protocol.NonRetriablef("%s node: message content is required", e.label)
	case cfg.VariableName == "":
		return protocol.NonRetriablef("%s node: no variable name given", e.label)
	case cfg.WebhookURL == "":
		return protocol.NonRetriablef("%s node: webhook URL is required", e.label)
	default:
		return nil
	}
}

func (e *Executor) post(ctx context.Context, webhookURL string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
