package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

type mockQueryService struct {
	outcome  *models.QueryOutcome
	err      error
	question string
}

func (m *mockQueryService) Ask(ctx context.Context, text string) (*models.QueryOutcome, error) {
	m.question = text
	return m.outcome, m.err
}

type mockTrainingService struct {
	result *services.TrainResult
	err    error
	req    services.TrainRequest
	called bool
}

func (m *mockTrainingService) Train(ctx context.Context, req services.TrainRequest) (*services.TrainResult, error) {
	m.called = true
	m.req = req
	return m.result, m.err
}

// toolCallResponse is the decoded shape of a tools/call JSON-RPC response.
type toolCallResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool sends a tools/call request for name with the given JSON arguments.
func callTool(t *testing.T, s *server.MCPServer, name, arguments string) toolCallResponse {
	t.Helper()
	request := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"` + name + `","arguments":` + arguments + `}}`
	result := s.HandleMessage(context.Background(), []byte(request))

	resultBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var response toolCallResponse
	if err := json.Unmarshal(resultBytes, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return response
}

func newTestMCPServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}
