package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quintal-labs/graphmem/internal/graph"
	"github.com/quintal-labs/graphmem/internal/models"
)

// KnowledgeTools holds references needed by knowledge graph tool handlers.
type KnowledgeTools struct {
	Graph *graph.Service
}

// --- Input types ---

type CreateEntitiesInput struct {
	Project  string        `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Entities []EntityInput `json:"entities" jsonschema:"Array of entities to create"`
}

type EntityInput struct {
	Name         string   `json:"name" jsonschema:"Entity name"`
	EntityType   string   `json:"entityType" jsonschema:"Entity type (e.g., person, technology, concept)"`
	Observations []string `json:"observations,omitempty" jsonschema:"Initial observations about the entity"`
}

type AddObservationsInput struct {
	Project      string             `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Observations []ObservationInput `json:"observations" jsonschema:"Array of observations to add"`
}

type ObservationInput struct {
	EntityName string   `json:"entityName" jsonschema:"Name of the entity"`
	Contents   []string `json:"contents" jsonschema:"Observation texts to add"`
}

type CreateRelationsInput struct {
	Project   string          `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Relations []RelationInput `json:"relations" jsonschema:"Array of relations to create"`
}

type RelationInput struct {
	From         string `json:"from" jsonschema:"Source entity name"`
	To           string `json:"to" jsonschema:"Target entity name"`
	RelationType string `json:"relationType" jsonschema:"Relation type in active voice (e.g., uses, depends_on, manages)"`
}

type SearchNodesInput struct {
	Project string `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Query   string `json:"query" jsonschema:"Case-insensitive substring matched against entity names, types and observations"`
}

type OpenNodesInput struct {
	Project string   `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Names   []string `json:"names" jsonschema:"Exact entity names to retrieve"`
}

type ReadGraphInput struct {
	Project string `json:"project" jsonschema:"Project identifier selecting the graph store"`
}

type DeleteEntitiesInput struct {
	Project     string   `json:"project" jsonschema:"Project identifier selecting the graph store"`
	EntityNames []string `json:"entityNames" jsonschema:"Entity names to delete"`
}

type DeleteObservationsInput struct {
	Project   string                  `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Deletions []DeleteObservationItem `json:"deletions" jsonschema:"Array of observations to delete"`
}

type DeleteObservationItem struct {
	EntityName   string   `json:"entityName" jsonschema:"Name of the entity"`
	Observations []string `json:"observations" jsonschema:"Observation content strings to match and delete"`
}

type DeleteRelationsInput struct {
	Project   string          `json:"project" jsonschema:"Project identifier selecting the graph store"`
	Relations []RelationInput `json:"relations" jsonschema:"Array of relations to delete"`
}

// --- Handlers ---

func (t *KnowledgeTools) CreateEntities(_ context.Context, _ *mcp.CallToolRequest, input CreateEntitiesInput) (*mcp.CallToolResult, any, error) {
	entities := make([]models.Entity, len(input.Entities))
	for i, e := range input.Entities {
		entities[i] = models.Entity{
			Name:         e.Name,
			EntityType:   e.EntityType,
			Observations: e.Observations,
		}
	}

	added, err := t.Graph.CreateEntities(input.Project, entities)
	if err != nil {
		return toolError("Failed to create entities: %v", err), nil, nil
	}
	return toolJSON(added)
}

func (t *KnowledgeTools) CreateRelations(_ context.Context, _ *mcp.CallToolRequest, input CreateRelationsInput) (*mcp.CallToolResult, any, error) {
	relations := make([]models.Relation, len(input.Relations))
	for i, r := range input.Relations {
		relations[i] = models.Relation{From: r.From, To: r.To, RelationType: r.RelationType}
	}

	added, err := t.Graph.CreateRelations(input.Project, relations)
	if err != nil {
		return toolError("Failed to create relations: %v", err), nil, nil
	}
	return toolJSON(added)
}

func (t *KnowledgeTools) AddObservations(_ context.Context, _ *mcp.CallToolRequest, input AddObservationsInput) (*mcp.CallToolResult, any, error) {
	additions := make([]graph.ObservationAddition, len(input.Observations))
	for i, o := range input.Observations {
		additions[i] = graph.ObservationAddition{EntityName: o.EntityName, Contents: o.Contents}
	}

	results, err := t.Graph.AddObservations(input.Project, additions)
	if err != nil {
		return toolError("Failed to add observations: %v", err), nil, nil
	}
	return toolJSON(results)
}

func (t *KnowledgeTools) DeleteEntities(_ context.Context, _ *mcp.CallToolRequest, input DeleteEntitiesInput) (*mcp.CallToolResult, any, error) {
	if err := t.Graph.DeleteEntities(input.Project, input.EntityNames); err != nil {
		return toolError("Failed to delete entities: %v", err), nil, nil
	}
	return toolText("Entities deleted successfully"), nil, nil
}

func (t *KnowledgeTools) DeleteObservations(_ context.Context, _ *mcp.CallToolRequest, input DeleteObservationsInput) (*mcp.CallToolResult, any, error) {
	deletions := make([]graph.ObservationDeletion, len(input.Deletions))
	for i, d := range input.Deletions {
		deletions[i] = graph.ObservationDeletion{EntityName: d.EntityName, Observations: d.Observations}
	}

	if err := t.Graph.DeleteObservations(input.Project, deletions); err != nil {
		return toolError("Failed to delete observations: %v", err), nil, nil
	}
	return toolText("Observations deleted successfully"), nil, nil
}

func (t *KnowledgeTools) DeleteRelations(_ context.Context, _ *mcp.CallToolRequest, input DeleteRelationsInput) (*mcp.CallToolResult, any, error) {
	relations := make([]models.Relation, len(input.Relations))
	for i, r := range input.Relations {
		relations[i] = models.Relation{From: r.From, To: r.To, RelationType: r.RelationType}
	}

	if err := t.Graph.DeleteRelations(input.Project, relations); err != nil {
		return toolError("Failed to delete relations: %v", err), nil, nil
	}
	return toolText("Relations deleted successfully"), nil, nil
}

func (t *KnowledgeTools) ReadGraph(_ context.Context, _ *mcp.CallToolRequest, input ReadGraphInput) (*mcp.CallToolResult, any, error) {
	g, err := t.Graph.ReadGraph(input.Project)
	if err != nil {
		return toolError("Failed to read graph: %v", err), nil, nil
	}
	return toolJSON(g)
}

func (t *KnowledgeTools) SearchNodes(_ context.Context, _ *mcp.CallToolRequest, input SearchNodesInput) (*mcp.CallToolResult, any, error) {
	sub, err := t.Graph.SearchNodes(input.Project, input.Query)
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	return toolJSON(sub)
}

func (t *KnowledgeTools) OpenNodes(_ context.Context, _ *mcp.CallToolRequest, input OpenNodesInput) (*mcp.CallToolResult, any, error) {
	sub, err := t.Graph.OpenNodes(input.Project, input.Names)
	if err != nil {
		return toolError("Failed to open nodes: %v", err), nil, nil
	}
	return toolJSON(sub)
}
