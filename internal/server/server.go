package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quintal-labs/graphmem/internal/graph"
	"github.com/quintal-labs/graphmem/internal/tools"
)

// New creates a fully configured MCP server with all tools registered.
func New(svc *graph.Service) *mcp.Server {
	kt := &tools.KnowledgeTools{Graph: svc}
	pt := &tools.ProjectTools{Graph: svc}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "graphmem",
		Version: "0.1.0",
	}, nil)

	// Knowledge graph tools. Every tool takes a project identifier that
	// selects an isolated graph store.
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_entities",
		Description: "Create one or more entities in the project's knowledge graph; existing names are skipped",
	}, kt.CreateEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_relations",
		Description: "Create directed relations between entities; existing triples are skipped",
	}, kt.CreateRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_observations",
		Description: "Add observations to existing entities; fails if any entity does not exist",
	}, kt.AddObservations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_entities",
		Description: "Delete entities and cascade over every relation referencing them",
	}, kt.DeleteEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_observations",
		Description: "Delete specific observations from entities; missing targets are ignored",
	}, kt.DeleteObservations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_relations",
		Description: "Delete relations matching the given triples exactly",
	}, kt.DeleteRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "read_graph",
		Description: "Read the entire knowledge graph of a project",
	}, kt.ReadGraph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Search entities by case-insensitive substring over names, types and observations",
	}, kt.SearchNodes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "open_nodes",
		Description: "Retrieve specific entities by exact name match",
	}, kt.OpenNodes)

	// Project management tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_projects",
		Description: "List every project this server has stored graphs for",
	}, pt.ListProjects)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_project",
		Description: "Permanently delete a project store and all its data (irreversible)",
	}, pt.DeleteProject)

	return srv
}
