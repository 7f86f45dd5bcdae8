// Package mcp exposes the query and training operations as MCP tools.
package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-analyst/pkg/middleware"
)

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// ToolDeps groups the dependencies of every registered tool.
type ToolDeps struct {
	Health   tools.HealthToolDeps
	Query    *tools.QueryToolDeps
	Training *tools.TrainingToolDeps
}

// NewServer creates a new MCP server instance.
func NewServer(name, version string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterTools registers health, ask_invoices and train_knowledge.
func (s *Server) RegisterTools(deps ToolDeps) {
	tools.RegisterHealthTool(s.mcp, deps.Health)
	tools.RegisterAskInvoicesTool(s.mcp, deps.Query)
	tools.RegisterTrainKnowledgeTool(s.mcp, deps.Training)
}

// NewStreamableHTTPServer creates a stateless HTTP transport for this server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// Handler returns the HTTP transport wrapped in JSON-RPC request logging.
func (s *Server) Handler() http.Handler {
	return middleware.MCPRequestLogger(s.logger)(s.NewStreamableHTTPServer())
}
