package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quintal-labs/graphmem/internal/graph"
	"github.com/quintal-labs/graphmem/internal/models"
)

// ProjectTools holds references needed by project management tool handlers.
type ProjectTools struct {
	Graph *graph.Service
}

type DeleteProjectInput struct {
	Project string `json:"project" jsonschema:"Identifier of the project store to permanently delete"`
}

func (t *ProjectTools) ListProjects(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	projects, err := t.Graph.ListProjects()
	if err != nil {
		return toolError("Failed to list projects: %v", err), nil, nil
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return toolJSON(projects)
}

func (t *ProjectTools) DeleteProject(_ context.Context, _ *mcp.CallToolRequest, input DeleteProjectInput) (*mcp.CallToolResult, any, error) {
	if err := t.Graph.DeleteProject(input.Project); err != nil {
		return toolError("Failed to delete project: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Project %q permanently deleted.", input.Project)), nil, nil
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
