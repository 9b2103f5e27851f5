// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	gochannels "github.com/RachidJedata/GraphOps/pkg/channels/gochannel"
	"github.com/RachidJedata/GraphOps/pkg/channels/kafka"
	"github.com/RachidJedata/GraphOps/pkg/eventbus"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
	"github.com/RachidJedata/GraphOps/pkg/persistence/file"
	"github.com/RachidJedata/GraphOps/pkg/persistence/postgresql"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
	"github.com/RachidJedata/GraphOps/pkg/registry"
	"github.com/RachidJedata/GraphOps/pkg/steps"
)

// NewPersistence selects a persistence backend from the database URL scheme:
// postgres://... gets PostgreSQL, everything else the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}

// NewEventBus creates the trigger event bus for the given provider. The
// watermill channel pair is returned as well so callers can reuse it for the
// realtime publisher.
func NewEventBus(provider, serviceName string, logger *slog.Logger) (eventbus.EventBus, message.Publisher, error) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), pub, nil
	case "gochannel":
		channel := gochannels.CreateChannel(watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(channel, channel), channel, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}

// NewRegistry builds the node executor registry with the built-in executors.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	return registry.NewDefaultRegistry(logger)
}

// NewStepFactory selects the durable step store. With a Redis URL step
// results survive process restarts; without one they are memoized in memory,
// which is only safe for a single process.
func NewStepFactory(redisURL string, logger *slog.Logger) (steps.Factory, error) {
	if redisURL == "" {
		logger.Warn("No redis URL configured, step results are memoized in process memory only")

		return steps.NewMemoryFactory(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return steps.NewRedisFactory(redis.NewClient(opts)), nil
}

// NewRealtimePublisher wraps a watermill publisher into the node telemetry
// fan-out.
func NewRealtimePublisher(pub message.Publisher, logger *slog.Logger) realtime.Publisher {
	return realtime.NewWatermillPublisher(pub, logger)
}
