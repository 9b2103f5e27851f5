package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
)

// ExecutionRepository handles execution-related file operations. A single
// mutex serializes writers so idempotent creates and terminal transitions
// stay atomic within one process.
type ExecutionRepository struct {
	root string
	mu   sync.Mutex
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

// Create stores a new execution record. Creating an id that already exists
// returns the stored record unchanged.
func (er *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) (*models.Execution, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	existing, err := er.read(execution.ID)
	if err == nil {
		return existing, nil
	}

	if !persistence.IsExecutionNotFound(err) {
		return nil, err
	}

	err = er.write(execution)
	if err != nil {
		return nil, persistence.NewExecutionError("Create", execution.ID, err)
	}

	return execution, nil
}

// GetByID retrieves an execution by its ID.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.read(id)
}

// MarkSucceeded transitions an execution to SUCCESS. The transition is final.
func (er *ExecutionRepository) MarkSucceeded(_ context.Context, id string, output models.WorkflowContext, completedAt time.Time) error {
	return er.complete(id, "MarkSucceeded", func(execution *models.Execution) {
		execution.Status = models.ExecutionStatusSuccess
		execution.Output = output
		execution.CompletedAt = &completedAt
	})
}

// MarkFailed transitions an execution to FAILED. The transition is final.
func (er *ExecutionRepository) MarkFailed(_ context.Context, id, message, detail string, completedAt time.Time) error {
	return er.complete(id, "MarkFailed", func(execution *models.Execution) {
		execution.Status = models.ExecutionStatusFailed
		execution.ErrorMessage = message
		execution.ErrorDetail = detail
		execution.CompletedAt = &completedAt
	})
}

// ListByWorkflow returns every execution of a workflow, newest first.
func (er *ExecutionRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.Execution, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	dir := os.DirFS(path.Join(er.root, "executions"))

	jsonFiles, err := fs.Glob(dir, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		execution, err := er.read(file[:len(file)-len(".json")])
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID != workflowID {
			continue
		}

		executions = append(executions, execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}

func (er *ExecutionRepository) complete(id, op string, update func(*models.Execution)) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	execution, err := er.read(id)
	if err != nil {
		return err
	}

	if execution.Status.IsTerminal() {
		return persistence.NewExecutionError(op, id, persistence.ErrExecutionCompleted)
	}

	update(execution)

	err = er.write(execution)
	if err != nil {
		return persistence.NewExecutionError(op, id, err)
	}

	return nil
}

func (er *ExecutionRepository) read(id string) (*models.Execution, error) {
	filePath := filepath.Clean(path.Join(er.root, "executions", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to fetch execution %s: %w", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal(body, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (er *ExecutionRepository) write(execution *models.Execution) error {
	err := os.MkdirAll(path.Join(er.root, "executions"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	filePath := path.Join(er.root, "executions", execution.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}
