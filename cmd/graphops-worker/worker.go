package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/RachidJedata/GraphOps/pkg/eventbus"
	"github.com/RachidJedata/GraphOps/pkg/events"
	"github.com/RachidJedata/GraphOps/pkg/workflow"
)

// WorkerManager subscribes the orchestrator to the trigger event stream and
// keeps the process alive until it is signalled to stop.
type WorkerManager struct {
	id           string
	logger       *slog.Logger
	eventBus     eventbus.EventBus
	orchestrator *workflow.Orchestrator
}

func NewWorkerManager(
	id string,
	eventBus eventbus.EventBus,
	orchestrator *workflow.Orchestrator,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:           id,
		logger:       logger,
		eventBus:     eventBus,
		orchestrator: orchestrator,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		w.logger.InfoContext(ctx, "Shutting down worker...")
	case <-ctx.Done():
	}

	return nil
}

// handleWorkflowTriggered runs one workflow. A returned error nacks the
// message so the bus redelivers it; the orchestrator only errors on transient
// failures.
func (w *WorkerManager) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	return w.orchestrator.Execute(ctx, *triggeredEvent)
}
