package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db *sql.DB
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Create stores a new execution record. The insert is idempotent on the
// execution id: a duplicate create returns the stored record unchanged.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) (*models.Execution, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO executions (id, workflow_id, status, started_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, execution.ID, execution.WorkflowID, string(execution.Status), execution.StartedAt)
	if err != nil {
		return nil, persistence.NewExecutionError("Create", execution.ID, err)
	}

	return r.GetByID(ctx, execution.ID)
}

// GetByID retrieves an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , status
		  , started_at
		  , completed_at
		  , output
		  , error_message
		  , error_detail
		FROM executions
		WHERE id = $1
	`

	return r.scanExecution(r.db.QueryRowContext(ctx, query, id), id)
}

// MarkSucceeded transitions an execution to SUCCESS. The transition is final.
func (r *ExecutionRepository) MarkSucceeded(ctx context.Context, id string, output models.WorkflowContext, completedAt time.Time) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return persistence.NewExecutionError("MarkSucceeded", id, fmt.Errorf("failed to marshal output: %w", err))
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE executions
		SET status = $2, output = $3, completed_at = $4
		WHERE id = $1 AND status = $5
	`, id, string(models.ExecutionStatusSuccess), payload, completedAt, string(models.ExecutionStatusRunning))
	if err != nil {
		return persistence.NewExecutionError("MarkSucceeded", id, err)
	}

	return r.checkTransition(ctx, result, "MarkSucceeded", id)
}

// MarkFailed transitions an execution to FAILED. The transition is final.
func (r *ExecutionRepository) MarkFailed(ctx context.Context, id, message, detail string, completedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE executions
		SET status = $2, error_message = $3, error_detail = $4, completed_at = $5
		WHERE id = $1 AND status = $6
	`, id, string(models.ExecutionStatusFailed), message, detail, completedAt, string(models.ExecutionStatusRunning))
	if err != nil {
		return persistence.NewExecutionError("MarkFailed", id, err)
	}

	return r.checkTransition(ctx, result, "MarkFailed", id)
}

// ListByWorkflow returns every execution of a workflow, newest first.
func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , status
		  , started_at
		  , completed_at
		  , output
		  , error_message
		  , error_detail
		FROM executions
		WHERE workflow_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() { _ = rows.Close() }()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows, "")
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

// checkTransition distinguishes a missing execution from one that already
// reached a terminal status when an update matched no rows.
func (r *ExecutionRepository) checkTransition(ctx context.Context, result sql.Result, op, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError(op, id, err)
	}

	if affected > 0 {
		return nil
	}

	_, err = r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return persistence.NewExecutionError(op, id, persistence.ErrExecutionCompleted)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ExecutionRepository) scanExecution(row rowScanner, id string) (*models.Execution, error) {
	var (
		execution    models.Execution
		status       string
		completedAt  sql.NullTime
		output       []byte
		errorMessage sql.NullString
		errorDetail  sql.NullString
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&status,
		&execution.StartedAt,
		&completedAt,
		&output,
		&errorMessage,
		&errorDetail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	execution.Status = models.ExecutionStatus(status)

	if completedAt.Valid {
		completed := completedAt.Time
		execution.CompletedAt = &completed
	}

	if len(output) > 0 {
		err = json.Unmarshal(output, &execution.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal output for execution %s: %w", execution.ID, err)
		}
	}

	execution.ErrorMessage = errorMessage.String
	execution.ErrorDetail = errorDetail.String

	return &execution, nil
}
