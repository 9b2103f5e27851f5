package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow run.
// RUNNING is the only non-terminal state.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "RUNNING"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
)

// IsTerminal reports whether the status admits no further transition.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusFailed
}

// Execution records one triggered, end-to-end traversal of a workflow.
// It is created once when the run starts (keyed by the triggering event id,
// which makes duplicate delivery idempotent) and updated exactly once when
// the run reaches a terminal state. The engine never deletes executions.
type Execution struct {
	ID           string          `json:"id"          validate:"required"`
	WorkflowID   string          `json:"workflow_id" validate:"required"`
	Status       ExecutionStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Output       WorkflowContext `json:"output,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ErrorDetail  string          `json:"error_detail,omitempty"`
}

// NewExecution creates a RUNNING execution record for the given run id.
func NewExecution(id, workflowID string) *Execution {
	return &Execution{
		ID:         id,
		WorkflowID: workflowID,
		Status:     ExecutionStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
}

// Credential is a user-owned secret consumed by LLM executors. Value is
// encrypted at rest; decryption is an opaque operation supplied by the host.
type Credential struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
