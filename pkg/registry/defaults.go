package registry

import (
	"log/slog"

	"github.com/RachidJedata/GraphOps/pkg/nodes/chatwebhook"
	"github.com/RachidJedata/GraphOps/pkg/nodes/httprequest"
	"github.com/RachidJedata/GraphOps/pkg/nodes/llm"
	"github.com/RachidJedata/GraphOps/pkg/nodes/trigger"
)

// NewDefaultRegistry builds a registry with every node type the engine ships.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	RegisterDefaultExecutors(r)

	return r
}

// RegisterDefaultExecutors registers the built-in executor factories.
func RegisterDefaultExecutors(r *Registry) {
	r.RegisterExecutor(trigger.NewInitialFactory())
	r.RegisterExecutor(trigger.NewManualTriggerFactory())
	r.RegisterExecutor(trigger.NewGoogleFormTriggerFactory())
	r.RegisterExecutor(trigger.NewStripeTriggerFactory())
	r.RegisterExecutor(httprequest.NewFactory())
	r.RegisterExecutor(llm.NewOpenAIFactory())
	r.RegisterExecutor(llm.NewAnthropicFactory())
	r.RegisterExecutor(llm.NewGeminiFactory())
	r.RegisterExecutor(chatwebhook.NewDiscordFactory())
	r.RegisterExecutor(chatwebhook.NewSlackFactory())
}
