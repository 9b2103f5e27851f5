package httprequest

import (
	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create() (protocol.NodeExecutor, error) {
	return NewExecutor(), nil
}

func (f *Factory) Type() models.NodeType {
	return models.NodeTypeHTTPRequest
}

func (f *Factory) Name() string {
	return "HTTP Request"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"endpoint"},
		"properties": map[string]any{
			"endpoint": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Request URL; may reference prior node outputs with {{templates}}",
			},
			"method": map[string]any{
				"type": "string",
				"enum": []any{"GET", "POST", "PUT", "DELETE", "PATCH"},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "JSON body template, sent for POST/PUT/PATCH",
			},
			"variableName": map[string]any{
				"type": "string",
			},
		},
	}
}
