// Package models defines the core domain models for node-based workflow automation
package models

import "time"

// NodeType identifies the behavior of a node. The set is closed: the
// engine refuses to run a workflow containing a type it does not know.
type NodeType string

const (
	// NodeTypeInitial is the default trigger node every new workflow is created with.
	NodeTypeInitial NodeType = "INITIAL"

	// Trigger node types.
	NodeTypeManualTrigger     NodeType = "MANUAL_TRIGGER"
	NodeTypeGoogleFormTrigger NodeType = "GOOGLE_FORM_TRIGGER"
	NodeTypeStripeTrigger     NodeType = "STRIPE_TRIGGER"

	// Action node types.
	NodeTypeHTTPRequest NodeType = "HTTP_REQUEST"
	NodeTypeOpenAI      NodeType = "OPENAI"
	NodeTypeAnthropic   NodeType = "ANTHROPIC"
	NodeTypeGemini      NodeType = "GEMINI"
	NodeTypeDiscord     NodeType = "DISCORD"
	NodeTypeSlack       NodeType = "SLACK"
)

// IsTrigger reports whether the node type is a trigger kind.
func (t NodeType) IsTrigger() bool {
	switch t {
	case NodeTypeInitial, NodeTypeManualTrigger, NodeTypeGoogleFormTrigger, NodeTypeStripeTrigger:
		return true
	default:
		return false
	}
}

// KnownNodeTypes lists every node type the engine ships an executor for.
func KnownNodeTypes() []NodeType {
	return []NodeType{
		NodeTypeInitial,
		NodeTypeManualTrigger,
		NodeTypeGoogleFormTrigger,
		NodeTypeStripeTrigger,
		NodeTypeHTTPRequest,
		NodeTypeOpenAI,
		NodeTypeAnthropic,
		NodeTypeGemini,
		NodeTypeDiscord,
		NodeTypeSlack,
	}
}

// Workflow is a user-owned graph of nodes and directed connections.
type Workflow struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"  validate:"required,min=1"`
	Owner       string        `json:"owner" validate:"required"`
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Node is a unit of work placed on a workflow canvas. The ID is stable and
// client-generated; Config is free-form and interpreted by the node's
// executor. Position only matters to the editor.
type Node struct {
	ID        string         `json:"id"   validate:"required"`
	Type      NodeType       `json:"type" validate:"required"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// Connection is a directed edge between two node ports.
// Both endpoints must reference nodes of the same workflow.
type Connection struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	SourcePort   string `json:"source_port"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	TargetPort   string `json:"target_port"`
}

// DefaultPort is assigned when the editor omits a port name on an edge.
const DefaultPort = "main"

// NewWorkflow creates a workflow pre-populated with the single INITIAL
// trigger node every fresh canvas starts with.
func NewWorkflow(id, name, owner string) *Workflow {
	now := time.Now().UTC()

	return &Workflow{
		ID:    id,
		Name:  name,
		Owner: owner,
		Nodes: []*Node{
			{
				ID:     id + ":initial",
				Type:   NodeTypeInitial,
				Name:   string(NodeTypeInitial),
				Config: map[string]any{},
			},
		},
		Connections: []*Connection{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
