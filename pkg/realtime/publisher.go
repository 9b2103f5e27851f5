package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/RachidJedata/GraphOps/pkg/models"
)

// Topic metadata keys set on every published message.
const (
	NodeIDMetadataKey = "node_id"
	TopicMetadataKey  = "topic"

	statusTopic  = "status"
	contextTopic = "context"
)

// Publisher is the pure fan-out point for node telemetry. Both operations are
// fire-and-forget: a failure to publish must never fail the run, so
// implementations swallow and log publish errors.
type Publisher interface {
	PublishStatus(ctx context.Context, nodeType models.NodeType, event StatusEvent)
	PublishContext(ctx context.Context, nodeType models.NodeType, event ContextEvent)
}

// WatermillPublisher fans events out over a watermill publisher, one channel
// pair per node type. Subscribers filter by channel, topic and nodeId on
// their side.
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewWatermillPublisher wraps pub. The logger receives dropped-event notices.
func NewWatermillPublisher(pub message.Publisher, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: pub,
		logger:    logger,
	}
}

func (p *WatermillPublisher) PublishStatus(ctx context.Context, nodeType models.NodeType, event StatusEvent) {
	p.publish(ctx, StatusChannel(nodeType), statusTopic, event.NodeID, event)
}

func (p *WatermillPublisher) PublishContext(ctx context.Context, nodeType models.NodeType, event ContextEvent) {
	p.publish(ctx, ContextChannel(nodeType), contextTopic, event.NodeID, event)
}

func (p *WatermillPublisher) publish(ctx context.Context, channel, topic, nodeID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WarnContext(ctx, "Dropping realtime event: marshal failed",
			"channel", channel, "node_id", nodeID, "error", err)

		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(NodeIDMetadataKey, nodeID)
	msg.Metadata.Set(TopicMetadataKey, topic)

	err = p.publisher.Publish(channel, msg)
	if err != nil {
		p.logger.WarnContext(ctx, "Dropping realtime event: publish failed",
			"channel", channel, "node_id", nodeID, "error", err)
	}
}

// NopPublisher discards every event. Used where telemetry is not wired.
type NopPublisher struct{}

func (NopPublisher) PublishStatus(context.Context, models.NodeType, StatusEvent)   {}
func (NopPublisher) PublishContext(context.Context, models.NodeType, ContextEvent) {}
