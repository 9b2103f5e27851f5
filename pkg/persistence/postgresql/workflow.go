package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// Workflows returns every workflow owned by the given owner, newest first.
// An empty owner returns all workflows.
func (r *WorkflowRepository) Workflows(ctx context.Context, owner string) ([]*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , owner
		  , created_at
		  , updated_at
		FROM workflows
		WHERE ($1 = '' OR owner = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow := &models.Workflow{}

		err := rows.Scan(&workflow.ID, &workflow.Name, &workflow.Owner, &workflow.CreatedAt, &workflow.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	for _, workflow := range workflows {
		err = r.loadGraph(ctx, workflow)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow graph: %w", err)
		}
	}

	return workflows, nil
}

// GetByID returns a workflow with its full node and connection sets.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , owner
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1
	`

	workflow := &models.Workflow{}

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&workflow.ID, &workflow.Name, &workflow.Owner, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to query workflow %s: %w", id, err)
	}

	err = r.loadGraph(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow graph: %w", err)
	}

	return workflow, nil
}

// Save upserts the workflow row and replaces its node and connection sets
// wholesale, all in one transaction.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = transaction.Rollback() }()

	_, err = transaction.ExecContext(ctx, `
		INSERT INTO workflows (id, name, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at
	`, workflow.ID, workflow.Name, workflow.Owner, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert workflow %s: %w", workflow.ID, err)
	}

	_, err = transaction.ExecContext(ctx, "DELETE FROM workflow_nodes WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to clear workflow nodes: %w", err)
	}

	_, err = transaction.ExecContext(ctx, "DELETE FROM workflow_connections WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to clear workflow connections: %w", err)
	}

	for i, node := range workflow.Nodes {
		config, err := json.Marshal(node.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal config for node %s: %w", node.ID, err)
		}

		_, err = transaction.ExecContext(ctx, `
			INSERT INTO workflow_nodes (workflow_id, id, node_type, name, config, position_x, position_y, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, workflow.ID, node.ID, string(node.Type), node.Name, config, node.PositionX, node.PositionY, i)
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}

	for _, connection := range workflow.Connections {
		sourcePort := connection.SourcePort
		if sourcePort == "" {
			sourcePort = models.DefaultPort
		}

		targetPort := connection.TargetPort
		if targetPort == "" {
			targetPort = models.DefaultPort
		}

		_, err = transaction.ExecContext(ctx, `
			INSERT INTO workflow_connections (workflow_id, id, source_node_id, source_port, target_node_id, target_port)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, workflow.ID, connection.ID, connection.SourceNodeID, sourcePort, connection.TargetNodeID, targetPort)
		if err != nil {
			return fmt.Errorf("failed to insert connection %s: %w", connection.ID, err)
		}
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow; nodes and connections cascade.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func (r *WorkflowRepository) loadGraph(ctx context.Context, workflow *models.Workflow) error {
	nodes, err := r.loadNodes(ctx, workflow.ID)
	if err != nil {
		return err
	}

	connections, err := r.loadConnections(ctx, workflow.ID)
	if err != nil {
		return err
	}

	workflow.Nodes = nodes
	workflow.Connections = connections

	return nil
}

func (r *WorkflowRepository) loadNodes(ctx context.Context, workflowID string) ([]*models.Node, error) {
	query := `
		SELECT
			id
		  , node_type
		  , name
		  , config
		  , position_x
		  , position_y
		FROM workflow_nodes
		WHERE workflow_id = $1
		ORDER BY sort_order
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	nodes := make([]*models.Node, 0)

	for rows.Next() {
		var (
			node     models.Node
			nodeType string
			config   []byte
		)

		err := rows.Scan(&node.ID, &nodeType, &node.Name, &config, &node.PositionX, &node.PositionY)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		node.Type = models.NodeType(nodeType)

		err = json.Unmarshal(config, &node.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal config for node %s: %w", node.ID, err)
		}

		nodes = append(nodes, &node)
	}

	return nodes, rows.Err()
}

func (r *WorkflowRepository) loadConnections(ctx context.Context, workflowID string) ([]*models.Connection, error) {
	query := `
		SELECT
			id
		  , source_node_id
		  , source_port
		  , target_node_id
		  , target_port
		FROM workflow_connections
		WHERE workflow_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	connections := make([]*models.Connection, 0)

	for rows.Next() {
		var connection models.Connection

		err := rows.Scan(
			&connection.ID,
			&connection.SourceNodeID,
			&connection.SourcePort,
			&connection.TargetNodeID,
			&connection.TargetPort,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		connections = append(connections, &connection)
	}

	return connections, rows.Err()
}
