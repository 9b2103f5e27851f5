package trigger

import (
	"context"
	"log/slog"
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

func TestExecutePassesContextThrough(t *testing.T) {
	t.Parallel()

	recorder := &statusRecorder{}
	seeded := models.WorkflowContext{
		"googleForm": map[string]any{"formId": "form-1"},
	}

	executor, err := NewGoogleFormTriggerFactory().Create()
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), protocol.ExecuteParams{
		NodeID:  "node-trigger",
		Config:  map[string]any{},
		Context: seeded,
		Runtime: protocol.Runtime{
			ExecutionID: "exec-1",
			Steps:       steps.NewMemoryFactory().ForExecution("exec-1"),
			Realtime:    recorder,
			Logger:      slog.Default(),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, seeded, result)
	assert.Equal(t, []realtime.NodeStatus{realtime.NodeStatusLoading, realtime.NodeStatusSuccess}, recorder.statuses)
}

func TestFactoryTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		factory  *Factory
		nodeType models.NodeType
		name     string
	}{
		{factory: NewInitialFactory(), nodeType: models.NodeTypeInitial, name: "Initial"},
		{factory: NewManualTriggerFactory(), nodeType: models.NodeTypeManualTrigger, name: "Manual Trigger"},
		{factory: NewGoogleFormTriggerFactory(), nodeType: models.NodeTypeGoogleFormTrigger, name: "Google Form Trigger"},
		{factory: NewStripeTriggerFactory(), nodeType: models.NodeTypeStripeTrigger, name: "Stripe Trigger"},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeType), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.nodeType, tt.factory.Type())
			assert.Equal(t, tt.name, tt.factory.Name())

			executor, err := tt.factory.Create()
			require.NoError(t, err)
			assert.Equal(t, tt.nodeType, executor.Type())
		})
	}
}

func TestFactorySchemaAcceptsAnyConfig(t *testing.T) {
	t.Parallel()

	schema := NewManualTriggerFactory().Schema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, true, schema["additionalProperties"])
}
