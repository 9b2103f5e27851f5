// Package workflow contains the graph-to-order compiler and the run
// orchestrator that drives node execution.
package workflow

import (
	"fmt"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// CyclicDependencyError reports a cycle in a workflow's connection graph.
// It aborts the run before any node executes and is never retriable.
type CyclicDependencyError struct {
	WorkflowID string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected in workflow %s", e.WorkflowID)
}

// Sort orders nodes so every node runs after all its upstream dependencies.
//
// When the workflow has no connections the nodes are mutually independent and
// any order is valid, so they are returned in stored order without sorting.
// A node with no incident connection is kept reachable through a synthetic
// self-edge so it still appears exactly once as an isolated unit; the sort
// result is deduplicated because that trick can emit an id twice. Ids with no
// matching node are dropped silently.
func Sort(workflowID string, nodes []*models.Node, connections []*models.Connection) ([]*models.Node, error) {
	if len(connections) == 0 {
		return nodes, nil
	}

	type edge struct {
		from, to string
	}

	edges := make([]edge, 0, len(connections))
	connected := make(map[string]bool, len(nodes))

	for _, conn := range connections {
		edges = append(edges, edge{from: conn.SourceNodeID, to: conn.TargetNodeID})
		connected[conn.SourceNodeID] = true
		connected[conn.TargetNodeID] = true
	}

	for _, node := range nodes {
		if !connected[node.ID] {
			edges = append(edges, edge{from: node.ID, to: node.ID})
		}
	}

	// Universe of ids taking part in the sort, in stored node order first so
	// the result is deterministic. Edges may reference ids with no node; they
	// participate in ordering and are dropped when mapping back.
	var universe []string

	seen := make(map[string]bool, len(nodes))

	for _, node := range nodes {
		universe = append(universe, node.ID)
		seen[node.ID] = true
	}

	for _, e := range edges {
		if !seen[e.from] {
			universe = append(universe, e.from)
			seen[e.from] = true
		}

		if !seen[e.to] {
			universe = append(universe, e.to)
			seen[e.to] = true
		}
	}

	indegree := make(map[string]int, len(universe))
	adjacency := make(map[string][]string, len(universe))

	for _, e := range edges {
		if e.from == e.to && !connected[e.from] {
			// Synthetic self-edge: presence in the universe is all it buys.
			continue
		}

		adjacency[e.from] = append(adjacency[e.from], e.to)
		indegree[e.to]++
	}

	queue := make([]string, 0, len(universe))

	for _, id := range universe {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(universe))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, next := range adjacency[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) != len(universe) {
		return nil, protocol.NewNonRetriableError(&CyclicDependencyError{WorkflowID: workflowID})
	}

	byID := make(map[string]*models.Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	emitted := make(map[string]bool, len(sorted))
	ordered := make([]*models.Node, 0, len(nodes))

	for _, id := range sorted {
		if emitted[id] {
			continue
		}

		emitted[id] = true

		if node, ok := byID[id]; ok {
			ordered = append(ordered, node)
		}
	}

	return ordered, nil
}
