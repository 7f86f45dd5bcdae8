package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

// TrainingToolDeps contains dependencies for the train_knowledge tool.
type TrainingToolDeps struct {
	TrainingService services.TrainingService
}

type trainResponse struct {
	Status  string                 `json:"status"`
	Results []services.FieldResult `json:"results"`
}

// RegisterTrainKnowledgeTool adds the train_knowledge tool, which teaches the query
// resolver new schema, documentation or question/SQL examples.
func RegisterTrainKnowledgeTool(s *server.MCPServer, deps *TrainingToolDeps) {
	tool := mcp.NewTool(
		"train_knowledge",
		mcp.WithDescription(
			"Add knowledge used when translating questions to SQL. Any combination of fields may be given: "+
				"'ddl' (a CREATE TABLE statement), 'documentation' (a sentence about the data), "+
				"or 'question' together with 'sql' (an example pair). "+
				"Knowledge is append-only. Returns a per-field result. "+
				"Example: question='How many invoices are overdue?', sql='SELECT COUNT(*) FROM \"Invoice\" WHERE \"dueDate\" < NOW()'",
		),
		mcp.WithString("ddl", mcp.Description("Optional - CREATE TABLE statement describing a table")),
		mcp.WithString("documentation", mcp.Description("Optional - free-text fact about the data")),
		mcp.WithString("question", mcp.Description("Optional - example question; requires 'sql'")),
		mcp.WithString("sql", mcp.Description("Optional - SQL answering 'question'; requires 'question'")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trainReq := services.TrainRequest{
			DDL:           getOptionalString(req, "ddl"),
			Question:      getOptionalString(req, "question"),
			SQL:           getOptionalString(req, "sql"),
			Documentation: getOptionalString(req, "documentation"),
		}

		result, err := deps.TrainingService.Train(ctx, trainReq)
		switch {
		case errors.Is(err, apperrors.ErrNoUsableField):
			return NewErrorResultWithDetails(
				"invalid_parameters",
				"provide 'ddl', 'documentation', or both 'question' and 'sql'",
				fieldResults(result),
			), nil
		case errors.Is(err, apperrors.ErrTrainingFailed):
			return NewErrorResultWithDetails("training_failed", err.Error(), fieldResults(result)), nil
		case err != nil:
			return nil, fmt.Errorf("failed to apply training: %w", err)
		}

		jsonBytes, err := json.Marshal(trainResponse{Status: "Training successful", Results: result.Results})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal training result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func fieldResults(result *services.TrainResult) []services.FieldResult {
	if result == nil {
		return nil
	}
	return result.Results
}
