package web

import (
	"github.com/RachidJedata/GraphOps/pkg/models"
)

// CreateWorkflowRequest creates a fresh workflow canvas.
type CreateWorkflowRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"  validate:"required,min=1,max=255"`
	Owner string `json:"owner" validate:"required"`
}

// UpdateWorkflowRequest replaces the workflow's name and graph wholesale.
type UpdateWorkflowRequest struct {
	Name        string               `json:"name" validate:"required,min=1,max=255"`
	Nodes       []*models.Node       `json:"nodes"       validate:"dive,required"`
	Connections []*models.Connection `json:"connections" validate:"dive,required"`
}

// ExecuteWorkflowResponse acknowledges an accepted trigger.
type ExecuteWorkflowResponse struct {
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
}

// googleFormPayload is the inbound Google Forms submission shape.
type googleFormPayload struct {
	FormID          string         `json:"formId"`
	FormTitle       string         `json:"formTitle"`
	ResponseID      string         `json:"responseId"`
	Timestamp       string         `json:"timestamp"`
	RespondentEmail string         `json:"respondentEmail"`
	Responses       map[string]any `json:"responses"`
}

// stripePayload is the subset of a Stripe event envelope the trigger records.
type stripePayload struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Created  int64  `json:"created"`
	Livemode bool   `json:"livemode"`
	Data     struct {
		Object map[string]any `json:"object"`
	} `json:"data"`
}
