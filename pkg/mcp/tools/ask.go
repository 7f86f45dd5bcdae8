package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

// QueryToolDeps contains dependencies for the ask_invoices tool.
type QueryToolDeps struct {
	QueryService services.QueryService
}

// askResult is the query outcome plus a machine-readable code for execution errors.
type askResult struct {
	SQL       string       `json:"sql"`
	Data      []models.Row `json:"data"`
	Error     *string      `json:"error"`
	ErrorCode string       `json:"error_code,omitempty"`
}

// RegisterAskInvoicesTool adds the ask_invoices tool, which answers a natural-language
// question about the invoicing data with the SQL used and the resulting rows.
func RegisterAskInvoicesTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"ask_invoices",
		mcp.WithDescription(
			"Answer an analytical question about invoices, vendors, customers, line items and payments. "+
				"The question is translated to a read-only PostgreSQL query which is then executed. "+
				"Returns the SQL, the result rows in column order, and an error message if execution failed. "+
				"Example: question='What are the top vendors by total spend?'",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question in plain language (e.g., 'Show spend by category')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		outcome, err := deps.QueryService.Ask(ctx, question)
		if errors.Is(err, apperrors.ErrEmptyInput) {
			return NewErrorResult("invalid_parameters", "parameter 'question' cannot be empty"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to answer question: %w", err)
		}

		result := askResult{
			SQL:   outcome.SQL,
			Data:  outcome.Data,
			Error: outcome.Error,
		}
		if result.Data == nil {
			result.Data = []models.Row{}
		}
		if outcome.Failed() {
			result.ErrorCode = sqlErrorCode(*outcome.Error)
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}
