// Package trigger provides the trigger node executors. Triggers have no
// external effect at execution time: the run context was already seeded by
// the triggering event, so they pass it through unchanged. They still walk
// the full loading/success status lifecycle so the editor shows a uniform
// indicator across node kinds.
package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
)

// PassthroughExecutor implements every trigger node type.
type PassthroughExecutor struct {
	nodeType models.NodeType
}

func NewPassthroughExecutor(nodeType models.NodeType) *PassthroughExecutor {
	return &PassthroughExecutor{nodeType: nodeType}
}

func (e *PassthroughExecutor) Type() models.NodeType {
	return e.nodeType
}

func (e *PassthroughExecutor) Execute(ctx context.Context, params protocol.ExecuteParams) (models.WorkflowContext, error) {
	rt := params.Runtime

	rt.Realtime.PublishStatus(ctx, e.nodeType, realtime.StatusEvent{
		NodeID: params.NodeID,
		Status: realtime.NodeStatusLoading,
	})

	stepName := fmt.Sprintf("%s:%s", strings.ToLower(string(e.nodeType)), params.NodeID)

	result, err := rt.Steps.Run(ctx, stepName, func(ctx context.Context) (any, error) {
		return params.Context, nil
	})
	if err != nil {
		rt.Realtime.PublishStatus(ctx, e.nodeType, realtime.StatusEvent{
			NodeID: params.NodeID,
			Status: realtime.NodeStatusError,
			Error:  err.Error(),
		})

		return nil, err
	}

	rt.Realtime.PublishStatus(ctx, e.nodeType, realtime.StatusEvent{
		NodeID: params.NodeID,
		Status: realtime.NodeStatusSuccess,
	})

	passed, ok := models.AsContext(result)
	if !ok {
		return params.Context, nil
	}

	return passed, nil
}

// Factory registers one trigger node type.
type Factory struct {
	nodeType models.NodeType
	name     string
}

func NewInitialFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeInitial, name: "Initial"}
}

func NewManualTriggerFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeManualTrigger, name: "Manual Trigger"}
}

func NewGoogleFormTriggerFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeGoogleFormTrigger, name: "Google Form Trigger"}
}

func NewStripeTriggerFactory() *Factory {
	return &Factory{nodeType: models.NodeTypeStripeTrigger, name: "Stripe Trigger"}
}

func (f *Factory) Create() (protocol.NodeExecutor, error) {
	return NewPassthroughExecutor(f.nodeType), nil
}

func (f *Factory) Type() models.NodeType {
	return f.nodeType
}

func (f *Factory) Name() string {
	return f.name
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
	}
}
