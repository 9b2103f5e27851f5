// Package protocol defines the interfaces and contracts for pluggable node executors.
package protocol

import (
	"context"
	"log/slog"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/realtime"
)

// StepRunner executes a named unit of work durably: when the surrounding run
// is replayed or resumed, a step that already completed returns its memoized
// result instead of re-executing. Executors must route every side effect
// (network calls, persistence writes) through it.
type StepRunner interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) (any, error)) (any, error)
}

// CredentialResolver resolves a user-owned credential and returns its
// decrypted value. It fails closed: a missing or foreign credential is an
// error, never an empty value.
type CredentialResolver interface {
	Get(ctx context.Context, id, ownerID string) (string, error)
}

// Runtime bundles the capabilities the orchestrator hands to every executor.
type Runtime struct {
	ExecutionID string
	OwnerID     string
	Steps       StepRunner
	Realtime    realtime.Publisher
	Credentials CredentialResolver
	Logger      *slog.Logger
}

// ExecuteParams carries one node's execution input.
type ExecuteParams struct {
	NodeID  string
	Config  map[string]any
	Context models.WorkflowContext
	Runtime Runtime
}

// NodeExecutor performs the effect of a single node type and returns the
// extended context. Implementations publish loading/success/error status and
// input/output snapshots through params.Runtime.Realtime.
type NodeExecutor interface {
	Type() models.NodeType
	Execute(ctx context.Context, params ExecuteParams) (models.WorkflowContext, error)
}

// ExecutorFactory creates executor instances and describes the node type to
// the registry.
type ExecutorFactory interface {
	// Create builds the executor. Construction must not perform I/O.
	Create() (NodeExecutor, error)

	// Type returns the node type this factory serves.
	Type() models.NodeType

	// Name returns the human-readable name for this node type.
	Name() string

	// Schema returns the JSON schema for the node's configuration map.
	Schema() map[string]any
}
