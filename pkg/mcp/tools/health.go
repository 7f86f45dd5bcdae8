// Package tools provides the MCP tools of ekaya-analyst.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Database       bool   `json:"database"`
	BackendEnabled bool   `json:"backend_enabled"`
}

// HealthToolDeps describes what the health tool reports.
type HealthToolDeps struct {
	Version        string
	Database       bool // false in degraded mode
	BackendEnabled bool
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The status is "ok", or "degraded" when running without a database.
func RegisterHealthTool(s *server.MCPServer, deps HealthToolDeps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := "ok"
		if !deps.Database {
			status = "degraded"
		}
		result, err := json.Marshal(healthResult{
			Status:         status,
			Version:        deps.Version,
			Database:       deps.Database,
			BackendEnabled: deps.BackendEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
