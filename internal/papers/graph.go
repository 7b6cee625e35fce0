package papers

import (
	"context"
	"fmt"

	"paper-backend/internal/llm"
)

// GraphNode is a single concept in the knowledge graph.
type GraphNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// GraphEdge is a directed relationship between two nodes.
type GraphEdge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Graph is the validated knowledge graph for a paper.
type Graph struct {
	Nodes    []GraphNode    `json:"nodes"`
	Edges    []GraphEdge    `json:"edges"`
	Metadata map[string]any `json:"metadata"`
}

// GraphExtractor derives a concept graph from a completed analysis.
type GraphExtractor struct {
	Invoker StageInvoker
}

func NewGraphExtractor(invoker StageInvoker) *GraphExtractor {
	return &GraphExtractor{Invoker: invoker}
}

// Extract asks the model for a graph and validates the reply. Malformed
// nodes get defaults, edges pointing at unknown nodes are dropped.
func (g *GraphExtractor) Extract(ctx context.Context, result Result) Graph {
	out := g.Invoker.Invoke(ctx, graphPrompt(result), llm.CallOptions{})
	return buildGraph(out, result.Metadata.Title)
}

func buildGraph(out map[string]any, paperTitle string) Graph {
	graph := Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}

	rawNodes, _ := out["nodes"].([]any)
	known := make(map[string]bool, len(rawNodes))
	for i, item := range rawNodes {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node := GraphNode{
			ID:          stringField(entry, "id"),
			Label:       stringField(entry, "label"),
			Type:        stringField(entry, "type"),
			Description: stringField(entry, "description"),
		}
		if node.ID == "" {
			node.ID = fmt.Sprintf("node_%d", i)
		}
		if known[node.ID] {
			continue
		}
		if node.Label == "" {
			node.Label = node.ID
		}
		if node.Type == "" {
			node.Type = "concept"
		}
		if node.Description == "" {
			node.Description = "No description available"
		}
		known[node.ID] = true
		graph.Nodes = append(graph.Nodes, node)
	}

	rawEdges, _ := out["edges"].([]any)
	for _, item := range rawEdges {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		edge := GraphEdge{
			Source:      stringField(entry, "source"),
			Target:      stringField(entry, "target"),
			Label:       stringField(entry, "label"),
			Description: stringField(entry, "description"),
		}
		if edge.Source == "" || edge.Target == "" {
			continue
		}
		if !known[edge.Source] || !known[edge.Target] {
			continue
		}
		if edge.Label == "" {
			edge.Label = "related_to"
		}
		if edge.Description == "" {
			edge.Description = "No description available"
		}
		graph.Edges = append(graph.Edges, edge)
	}

	graph.Metadata = map[string]any{
		"paper_title": paperTitle,
		"node_count":  len(graph.Nodes),
		"edge_count":  len(graph.Edges),
	}
	return graph
}
