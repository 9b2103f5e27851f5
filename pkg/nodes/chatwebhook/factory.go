package chatwebhook

import (
	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// Factory builds one destination's executor.
type Factory struct {
	nodeType models.NodeType
	label    string
	payload  PayloadBuilder
	username bool
}

func NewDiscordFactory() *Factory {
	return &Factory{
		nodeType: models.NodeTypeDiscord,
		label:    "Discord",
		payload:  discordPayload,
		username: true,
	}
}

func NewSlackFactory() *Factory {
	return &Factory{
		nodeType: models.NodeTypeSlack,
		label:    "Slack",
		payload:  slackPayload,
	}
}

func (f *Factory) Create() (protocol.NodeExecutor, error) {
	return NewExecutor(f.nodeType, f.label, f.payload), nil
}

func (f *Factory) Type() models.NodeType {
	return f.nodeType
}

func (f *Factory) Name() string {
	return f.label
}

func (f *Factory) Schema() map[string]any {
	properties := map[string]any{
		"content": map[string]any{
			"type":        "string",
			"description": "Message template, rendered against the run context",
		},
		"variableName": map[string]any{
			"type":        "string",
			"description": "Context key the sent template is stored under",
		},
		"webhookUrl": map[string]any{
			"type":        "string",
			"description": "Incoming webhook URL to post the message to",
		},
	}

	if f.username {
		properties["username"] = map[string]any{
			"type":        "string",
			"description": "Optional bot display name template",
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   []string{"content", "variableName", "webhookUrl"},
	}
}
