package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/RachidJedata/GraphOps/pkg/eventbus"
	"github.com/RachidJedata/GraphOps/pkg/events"
	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/otelhelper"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
	"github.com/RachidJedata/GraphOps/pkg/registry"
	"github.com/RachidJedata/GraphOps/pkg/steps"
)

const orchestratorTracerName = "graphops/workflow"

// Orchestrator drives one workflow run from trigger event to terminal
// execution record. It owns the run state machine and nothing else: node
// behavior lives behind the registry, durability behind the step factory,
// telemetry behind the realtime publisher.
type Orchestrator struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	steps       steps.Factory
	realtime    realtime.Publisher
	credentials protocol.CredentialResolver
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
	workerID    string
}

func NewOrchestrator(
	persistence persistence.Persistence,
	registry *registry.Registry,
	stepFactory steps.Factory,
	realtimePublisher realtime.Publisher,
	credentials protocol.CredentialResolver,
	eventBus eventbus.EventPublisher,
	logger *slog.Logger,
	workerID string,
) *Orchestrator {
	return &Orchestrator{
		persistence: persistence,
		registry:    registry,
		steps:       stepFactory,
		realtime:    realtimePublisher,
		credentials: credentials,
		eventBus:    eventBus,
		logger:      logger,
		workerID:    workerID,
	}
}

// Execute runs the workflow named by the trigger event. The event id doubles
// as the execution id, so a redelivered event resumes the same execution
// instead of starting a second one; an execution that already reached a
// terminal status is left untouched.
//
// A non-nil return means the failure is transient and the event may be
// redelivered: completed steps are memoized, so the replay skips work already
// done. Permanent failures are absorbed into a FAILED execution record and
// return nil.
func (o *Orchestrator) Execute(ctx context.Context, event events.WorkflowTriggered) error {
	logger := o.logger.With(
		"workflow_id", event.WorkflowID,
		"execution_id", event.ID,
		"trigger_source", event.TriggerSource,
	)

	tracer := otel.Tracer(orchestratorTracerName)

	ctx, span := otelhelper.StartSpan(ctx, tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, event.WorkflowID),
		attribute.String(otelhelper.ExecutionIDKey, event.ID),
		attribute.String(otelhelper.EventIDKey, event.ID),
		attribute.String(otelhelper.WorkerIDKey, o.workerID),
	)
	defer span.End()

	execution, err := o.persistence.ExecutionRepository().Create(ctx, models.NewExecution(event.ID, event.WorkflowID))
	if err != nil {
		return fmt.Errorf("failed to create execution record: %w", err)
	}

	if execution.Status.IsTerminal() {
		logger.Info("Ignoring redelivered trigger event: execution already finished",
			"status", execution.Status)

		return nil
	}

	logger.Info("Starting workflow execution")

	output, runErr := o.run(ctx, event, logger)
	if runErr != nil {
		otelhelper.SetError(span, runErr)

		if !protocol.IsNonRetriable(runErr) {
			logger.Warn("Workflow execution failed transiently, leaving open for redelivery", "error", runErr)

			return runErr
		}

		return o.markFailed(ctx, execution, runErr, logger)
	}

	return o.markSucceeded(ctx, execution, output, logger)
}

// run performs the sequential fold over the sorted nodes. It touches no
// execution record; the caller translates its outcome into exactly one
// terminal update.
func (o *Orchestrator) run(ctx context.Context, event events.WorkflowTriggered, logger *slog.Logger) (models.WorkflowContext, error) {
	wf, err := o.persistence.WorkflowRepository().GetByID(ctx, event.WorkflowID)
	if err != nil {
		if errors.Is(err, persistence.ErrWorkflowNotFound) {
			return nil, protocol.NonRetriablef("workflow %s not found", event.WorkflowID)
		}

		return nil, fmt.Errorf("failed to load workflow %s: %w", event.WorkflowID, err)
	}

	sorted, err := Sort(wf.ID, wf.Nodes, wf.Connections)
	if err != nil {
		return nil, err
	}

	runtime := protocol.Runtime{
		ExecutionID: event.ID,
		OwnerID:     wf.Owner,
		Steps:       o.steps.ForExecution(event.ID),
		Realtime:    o.realtime,
		Credentials: o.credentials,
		Logger:      logger,
	}

	runContext := models.WorkflowContext{}
	for key, value := range event.InitialData {
		runContext[key] = value
	}

	for _, node := range sorted {
		executor, err := o.registry.ExecutorFor(node.Type)
		if err != nil {
			return nil, err
		}

		logger.Info("Executing node", "node_id", node.ID, "node_type", node.Type)

		runContext, err = executor.Execute(ctx, protocol.ExecuteParams{
			NodeID:  node.ID,
			Config:  node.Config,
			Context: runContext,
			Runtime: runtime,
		})
		if err != nil {
			return nil, fmt.Errorf("node %s (%s): %w", node.ID, node.Type, err)
		}
	}

	return runContext, nil
}

func (o *Orchestrator) markSucceeded(ctx context.Context, execution *models.Execution, output models.WorkflowContext, logger *slog.Logger) error {
	completedAt := time.Now().UTC()

	err := o.persistence.ExecutionRepository().MarkSucceeded(ctx, execution.ID, output, completedAt)
	if err != nil {
		return fmt.Errorf("failed to mark execution %s succeeded: %w", execution.ID, err)
	}

	logger.Info("Workflow execution completed", "duration", completedAt.Sub(execution.StartedAt))

	o.publish(ctx, execution.WorkflowID, events.ExecutionCompleted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		Duration:    completedAt.Sub(execution.StartedAt),
	}, logger)

	return nil
}

func (o *Orchestrator) markFailed(ctx context.Context, execution *models.Execution, runErr error, logger *slog.Logger) error {
	completedAt := time.Now().UTC()
	detail := string(debug.Stack())

	err := o.persistence.ExecutionRepository().MarkFailed(ctx, execution.ID, runErr.Error(), detail, completedAt)
	if err != nil {
		return fmt.Errorf("failed to mark execution %s failed: %w", execution.ID, err)
	}

	logger.Error("Workflow execution failed", "error", runErr,
		"duration", completedAt.Sub(execution.StartedAt))

	o.publish(ctx, execution.WorkflowID, events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		Error:       runErr.Error(),
		Duration:    completedAt.Sub(execution.StartedAt),
	}, logger)

	return nil
}

func (o *Orchestrator) publish(ctx context.Context, key string, event eventbus.Event, logger *slog.Logger) {
	if o.eventBus == nil {
		return
	}

	err := o.eventBus.Publish(ctx, key, event)
	if err != nil {
		logger.Warn("Failed to publish execution lifecycle event", "error", err)
	}
}
