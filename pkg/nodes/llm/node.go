// Package llm provides the text-generation node executors. All providers
// share one executor shape: resolve the user's credential, compile the
// prompts against the run context, generate, store the first text segment
// under the node's variable name.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/otelhelper"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
	"github.com/RachidJedata/GraphOps/pkg/template"
)

const defaultSystemPrompt = "You are a helpful assistant."

const tracerName = "graphops/nodes/llm"

// ClientBuilder constructs a provider client for one generation call.
// Construction is cheap; the credential is only known at execution time.
type ClientBuilder func(ctx context.Context, apiKey, model string) (llms.Model, error)

// Config is the shared configuration of every LLM node type.
type Config struct {
	CredentialID string
	ModelID      string
	VariableName string
	SystemPrompt string
	UserPrompt   string
}

func parseConfig(raw map[string]any) Config {
	str := func(key string) string {
		v, _ := raw[key].(string)

		return v
	}

	return Config{
		CredentialID: str("credentialId"),
		ModelID:      str("modelId"),
		VariableName: str("variableName"),
		SystemPrompt: str("systemPrompt"),
		UserPrompt:   str("userPrompt"),
	}
}

// Executor generates text through one provider.
type Executor struct {
	nodeType models.NodeType
	label    string
	build    ClientBuilder
}

func NewExecutor(nodeType models.NodeType, label string, build ClientBuilder) *Executor {
	return &Executor{
		nodeType: nodeType,
		label:    label,
		build:    build,
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

	systemPrompt := defaultSystemPrompt

	if cfg.SystemPrompt != "" {
		compiled, err := template.Compile(cfg.SystemPrompt, params.Context)
		if err != nil {
			return nil, e.fail(ctx, rt, params.NodeID,
				protocol.NonRetriablef("%s node: invalid system prompt template: %v", e.label, err))
		}

		systemPrompt = compiled
	}

	userPrompt, err := template.Compile(cfg.UserPrompt, params.Context)
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID,
			protocol.NonRetriablef("%s node: invalid user prompt template: %v", e.label, err))
	}

	apiKey, err := e.resolveCredential(ctx, rt, params.NodeID, cfg.CredentialID)
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID, err)
	}

	stepName := "generate-text:" + params.NodeID

	result, err := rt.Steps.Run(ctx, stepName, func(ctx context.Context) (any, error) {
		return e.generate(ctx, apiKey, cfg.ModelID, systemPrompt, userPrompt)
	})
	if err != nil {
		return nil, e.fail(ctx, rt, params.NodeID, protocol.ClassifyExternal(e.label+" node", err))
	}

	text, _ := result.(string)
	if text == "" {
		rt.Logger.WarnContext(ctx, "No text content in model response",
			"node_id", params.NodeID, "model", cfg.ModelID)
	}

	newContext := params.Context.With(cfg.VariableName, text)

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
	case cfg.ModelID == "":
		return protocol.NonRetriablef("%s node: no model id selected", e.label)
	case cfg.VariableName == "":
		return protocol.NonRetriablef("%s node: no variable name given", e.label)
	case cfg.UserPrompt == "":
		return protocol.NonRetriablef("%s node: user prompt is required", e.label)
	case cfg.CredentialID == "":
		return protocol.NonRetriablef("%s node: API key is required", e.label)
	default:
		return nil
	}
}

func (e *Executor) resolveCredential(ctx context.Context, rt protocol.Runtime, nodeID, credentialID string) (string, error) {
	result, err := rt.Steps.Run(ctx, "get-credential:"+nodeID, func(ctx context.Context) (any, error) {
		return rt.Credentials.Get(ctx, credentialID, rt.OwnerID)
	})
	if err != nil {
		return "", err
	}

	apiKey, ok := result.(string)
	if !ok || apiKey == "" {
		return "", protocol.NonRetriablef("%s node: API key is required", e.label)
	}

	return apiKey, nil
}

// generate performs one model call under a recorded span, mirroring the
// request and response so traces show what the node actually asked for.
func (e *Executor) generate(ctx context.Context, apiKey, modelID, systemPrompt, userPrompt string) (string, error) {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "llm.generate_text")
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.system", string(e.nodeType)),
		attribute.String("gen_ai.request.model", modelID),
		attribute.String("gen_ai.prompt.system", systemPrompt),
		attribute.String("gen_ai.prompt.user", userPrompt),
	)

	client, err := e.build(ctx, apiKey, modelID)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("failed to create %s client: %w", e.label, err)
	}

	resp, err := client.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no generation choices")
	}

	text := resp.Choices[0].Content
	span.SetAttributes(attribute.String("gen_ai.completion", text))

	return text, nil
}
