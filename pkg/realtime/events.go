// Package realtime provides the live status and context fan-out consumed by
// the workflow editor while a run is in flight. Events are ephemeral: they
// are published at least once, filtered client-side, and never stored.
package realtime

import (
	"strings"

	"github.com/RachidJedata/GraphOps/pkg/models"
)

// NodeStatus is the per-node execution indicator shown in the editor.
type NodeStatus string

const (
	NodeStatusLoading NodeStatus = "loading"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// ContextDataType distinguishes input from output snapshots.
type ContextDataType string

const (
	ContextDataInput  ContextDataType = "inputData"
	ContextDataOutput ContextDataType = "outputData"
)

// StatusEvent reports a node entering the loading, success or error state.
type StatusEvent struct {
	NodeID string     `json:"nodeId" validate:"required"`
	Status NodeStatus `json:"status" validate:"required,oneof=loading success error"`
	Error  string     `json:"error,omitempty"`
}

// ContextEvent carries a snapshot of the run context as a node saw it.
type ContextEvent struct {
	NodeID   string          `json:"nodeId"   validate:"required"`
	DataType ContextDataType `json:"dataType" validate:"required,oneof=inputData outputData"`
	Data     any             `json:"data"`
}

// StatusChannel returns the status channel name for a node type,
// e.g. "openai-status-execution".
func StatusChannel(nodeType models.NodeType) string {
	return channelSlug(nodeType) + "-status-execution"
}

// ContextChannel returns the context channel name for a node type,
// e.g. "openai-context-execution".
func ContextChannel(nodeType models.NodeType) string {
	return channelSlug(nodeType) + "-context-execution"
}

func channelSlug(nodeType models.NodeType) string {
	return strings.ReplaceAll(strings.ToLower(string(nodeType)), "_", "-")
}
