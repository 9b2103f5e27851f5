package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/RachidJedata/GraphOps/pkg/cmd"
	"github.com/RachidJedata/GraphOps/pkg/credentials"
	"github.com/RachidJedata/GraphOps/pkg/log"
	"github.com/RachidJedata/GraphOps/pkg/otelhelper"
	"github.com/RachidJedata/GraphOps/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "graphops-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for durable step results",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("graphops-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing GraphOps worker")

			if _, err := otelhelper.NewTracer(ctx, "graphops-worker"); err != nil {
				logger.WarnContext(ctx, "Failed to initialize tracing", "error", err)
			}

			eventBus, publisher, err := cmd.NewEventBus(command.String("event-bus"), "graphops-worker", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			stepFactory, err := cmd.NewStepFactory(command.String("redis-url"), logger)
			if err != nil {
				return err
			}

			orchestrator := workflow.NewOrchestrator(
				persistence,
				cmd.NewRegistry(logger),
				stepFactory,
				cmd.NewRealtimePublisher(publisher, logger),
				credentials.NewStore(persistence.CredentialRepository(), credentials.PlaintextDecrypter),
				eventBus,
				logger,
				workerID,
			)

			worker := NewWorkerManager(workerID, eventBus, orchestrator, logger)

			return worker.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
