// Package registry maps node types to their executors. It is the single
// polymorphism point of the engine: the orchestrator stays agnostic of
// concrete node behavior, and new node types are added by registering a new
// executor factory, never by touching the orchestrator.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// UnknownNodeTypeError indicates a workflow references a node type no
// executor is registered for: a data or versioning inconsistency between the
// editor and the engine. Never retriable.
type UnknownNodeTypeError struct {
	NodeType models.NodeType
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("no executor registered for node type %q", e.NodeType)
}

// Registry holds the process-wide node type to executor mapping. It is
// populated once at startup and read-only afterwards; construct it explicitly
// and thread it through rather than relying on a package-level singleton.
type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeType]protocol.ExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.NodeType]protocol.ExecutorFactory),
	}
}

// RegisterExecutor adds a factory to the registry. A later registration for
// the same type replaces the earlier one.
func (r *Registry) RegisterExecutor(factory protocol.ExecutorFactory) {
	r.factories[factory.Type()] = factory
	r.logger.Debug("Registered node executor", "node_type", factory.Type())
}

// ExecutorFor resolves the executor for a node type.
func (r *Registry) ExecutorFor(nodeType models.NodeType) (protocol.NodeExecutor, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, protocol.NewNonRetriableError(&UnknownNodeTypeError{NodeType: nodeType})
	}

	return factory.Create()
}

// ValidateConfig checks a node's configuration map against the JSON schema
// declared by its executor factory. A factory with no schema accepts any
// configuration.
func (r *Registry) ValidateConfig(nodeType models.NodeType, config map[string]any) error {
	factory, ok := r.factories[nodeType]
	if !ok {
		return &UnknownNodeTypeError{NodeType: nodeType}
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for node type %q: %w", nodeType, err)
	}

	if !result.Valid() {
		return fmt.Errorf("invalid config for node type %q: %s", nodeType, result.Errors()[0].String())
	}

	return nil
}

// Types returns the registered node types.
func (r *Registry) Types() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	return types
}
