// Package persistence provides the data storage abstraction the engine reads
// workflows from and writes execution records to.
package persistence

import (
	"context"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	CredentialRepository() CredentialRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow graphs. Save replaces the node and
// connection sets wholesale; Delete cascades to both.
type WorkflowRepository interface {
	Workflows(ctx context.Context, owner string) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores run records. Create is idempotent on the
// execution id: creating an id that already exists returns the stored record
// unchanged, which absorbs duplicate delivery of the same trigger event.
// The two Mark operations are the only mutation the engine ever performs and
// each record receives exactly one of them.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *models.Execution) (*models.Execution, error)
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	MarkSucceeded(ctx context.Context, id string, output models.WorkflowContext, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, message, detail string, completedAt time.Time) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
}

// CredentialRepository stores user-owned secrets. Lookups are always scoped
// by owner so one user can never read another's credential.
type CredentialRepository interface {
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Credential, error)
	Save(ctx context.Context, credential *models.Credential) error
	Delete(ctx context.Context, id, ownerID string) error
}
