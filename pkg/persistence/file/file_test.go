package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestNewPersistenceStripsFileScheme(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewPersistence("file://" + dir)

	require.NoError(t, p.HealthCheck(context.Background()))
	require.NoError(t, p.Close(context.Background()))
}

func TestWorkflowRepositorySaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).WorkflowRepository()

	workflow := models.NewWorkflow("wf-1", "My Workflow", "owner-1")
	workflow.Nodes = append(workflow.Nodes, &models.Node{
		ID:   "node-http",
		Type: models.NodeTypeHTTPRequest,
		Name: "Fetch",
		Config: map[string]any{
			"endpoint": "https://api.example.com",
		},
	})
	workflow.Connections = []*models.Connection{
		{ID: "conn-1", SourceNodeID: workflow.Nodes[0].ID, TargetNodeID: "node-http"},
	}

	require.NoError(t, repo.Save(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "My Workflow", loaded.Name)
	assert.Equal(t, "owner-1", loaded.Owner)
	assert.Len(t, loaded.Nodes, 2)
	assert.Len(t, loaded.Connections, 1)
}

func TestWorkflowRepositoryGetByIDNotFound(t *testing.T) {
	t.Parallel()

	repo := newTestPersistence(t).WorkflowRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepositorySaveReplacesGraphWholesale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).WorkflowRepository()

	workflow := models.NewWorkflow("wf-1", "My Workflow", "owner-1")
	workflow.Nodes = append(workflow.Nodes, &models.Node{ID: "node-a", Type: models.NodeTypeHTTPRequest})
	require.NoError(t, repo.Save(ctx, workflow))

	workflow.Nodes = []*models.Node{{ID: "node-b", Type: models.NodeTypeSlack}}
	workflow.Connections = nil
	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "node-b", loaded.Nodes[0].ID)
	assert.Empty(t, loaded.Connections)
}

func TestWorkflowRepositoryWorkflowsFiltersByOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).WorkflowRepository()

	require.NoError(t, repo.Save(ctx, models.NewWorkflow("wf-1", "First", "owner-1")))
	require.NoError(t, repo.Save(ctx, models.NewWorkflow("wf-2", "Second", "owner-2")))

	workflows, err := repo.Workflows(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "wf-1", workflows[0].ID)
}

func TestWorkflowRepositoryDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).WorkflowRepository()

	require.NoError(t, repo.Save(ctx, models.NewWorkflow("wf-1", "First", "owner-1")))
	require.NoError(t, repo.Delete(ctx, "wf-1"))

	_, err := repo.GetByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	// Deleting a missing workflow is not an error.
	assert.NoError(t, repo.Delete(ctx, "wf-1"))
}

func TestExecutionRepositoryCreateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).ExecutionRepository()

	created, err := repo.Create(ctx, models.NewExecution("exec-1", "wf-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, created.Status)

	require.NoError(t, repo.MarkSucceeded(ctx, "exec-1", models.WorkflowContext{"done": true}, time.Now().UTC()))

	// A duplicate create returns the stored record untouched.
	again, err := repo.Create(ctx, models.NewExecution("exec-1", "wf-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, again.Status)
}

func TestExecutionRepositoryMarkFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).ExecutionRepository()

	_, err := repo.Create(ctx, models.NewExecution("exec-1", "wf-1"))
	require.NoError(t, err)

	completedAt := time.Now().UTC()
	require.NoError(t, repo.MarkFailed(ctx, "exec-1", "node blew up", "stack trace", completedAt))

	loaded, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, loaded.Status)
	assert.Equal(t, "node blew up", loaded.ErrorMessage)
	assert.Equal(t, "stack trace", loaded.ErrorDetail)
	require.NotNil(t, loaded.CompletedAt)
}

func TestExecutionRepositoryTerminalIsFinal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).ExecutionRepository()

	_, err := repo.Create(ctx, models.NewExecution("exec-1", "wf-1"))
	require.NoError(t, err)

	require.NoError(t, repo.MarkSucceeded(ctx, "exec-1", nil, time.Now().UTC()))

	err = repo.MarkFailed(ctx, "exec-1", "too late", "", time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrExecutionCompleted)

	loaded, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, loaded.Status)
}

func TestExecutionRepositoryListByWorkflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).ExecutionRepository()

	first := models.NewExecution("exec-1", "wf-1")
	first.StartedAt = time.Now().UTC().Add(-time.Hour)
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	_, err = repo.Create(ctx, models.NewExecution("exec-2", "wf-1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, models.NewExecution("exec-3", "wf-other"))
	require.NoError(t, err)

	executions, err := repo.ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, "exec-2", executions[0].ID)
	assert.Equal(t, "exec-1", executions[1].ID)
}

func TestCredentialRepositoryOwnerScoping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestPersistence(t).CredentialRepository()

	require.NoError(t, repo.Save(ctx, &models.Credential{
		ID:      "cred-1",
		OwnerID: "owner-1",
		Name:    "OpenAI key",
		Value:   "sk-secret",
	}))

	credential, err := repo.GetByIDAndOwner(ctx, "cred-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", credential.Value)

	// Another owner cannot read it.
	_, err = repo.GetByIDAndOwner(ctx, "cred-1", "owner-2")
	assert.True(t, persistence.IsCredentialNotFound(err))

	// Nor delete it.
	require.NoError(t, repo.Delete(ctx, "cred-1", "owner-2"))

	_, err = repo.GetByIDAndOwner(ctx, "cred-1", "owner-1")
	assert.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "cred-1", "owner-1"))

	_, err = repo.GetByIDAndOwner(ctx, "cred-1", "owner-1")
	assert.True(t, persistence.IsCredentialNotFound(err))
}
