package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

func openAIBuilder(_ context.Context, apiKey, model string) (llms.Model, error) {
	return openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
}

func anthropicBuilder(_ context.Context, apiKey, model string) (llms.Model, error) {
	return anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
}

func geminiBuilder(ctx context.Context, apiKey, model string) (llms.Model, error) {
	return googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
}

// Factory builds one provider's executor.
type Factory struct {
	nodeType models.NodeType
	label    string
	build    ClientBuilder
}

func NewOpenAIFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeOpenAI, label: "OpenAI", build: openAIBuilder}
}

func NewAnthropicFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeAnthropic, label: "Anthropic", build: anthropicBuilder}
}

func NewGeminiFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeGemini, label: "Gemini", build: geminiBuilder}
}

func (f *Factory) Create() (protocol.NodeExecutor, error) {
	return NewExecutor(f.nodeType, f.label, f.build), nil
}

func (f *Factory) Type() models.NodeType {
	return f.nodeType
}

func (f *Factory) Name() string {
	return f.label
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"modelId": map[string]any{
				"type":        "string",
				"description": "Provider model identifier to generate with",
			},
			"variableName": map[string]any{
				"type":        "string",
				"description": "Context key the generated text is stored under",
			},
			"systemPrompt": map[string]any{
				"type":        "string",
				"description": "Optional system prompt template",
			},
			"userPrompt": map[string]any{
				"type":        "string",
				"description": "User prompt template, rendered against the run context",
			},
			"credentialId": map[string]any{
				"type":        "string",
				"description": "Credential holding the provider API key",
			},
		},
		"required": []string{"modelId", "variableName", "userPrompt", "credentialId"},
	}
}
