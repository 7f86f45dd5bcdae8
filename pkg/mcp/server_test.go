package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

type stubQueryService struct{}

func (stubQueryService) Ask(ctx context.Context, text string) (*models.QueryOutcome, error) {
	return &models.QueryOutcome{SQL: "SELECT 1", Data: []models.Row{}}, nil
}

type stubTrainingService struct{}

func (stubTrainingService) Train(ctx context.Context, req services.TrainRequest) (*services.TrainResult, error) {
	return &services.TrainResult{}, nil
}

func newRegisteredServer() *Server {
	s := NewServer("ekaya-analyst", "1.0.0", zap.NewNop())
	s.RegisterTools(ToolDeps{
		Health:   tools.HealthToolDeps{Version: "1.0.0", Database: true},
		Query:    &tools.QueryToolDeps{QueryService: stubQueryService{}},
		Training: &tools.TrainingToolDeps{TrainingService: stubTrainingService{}},
	})
	return s
}

func TestNewServer(t *testing.T) {
	s := NewServer("test-server", "1.0.0", zap.NewNop())

	require.NotNil(t, s)
	require.NotNil(t, s.mcp)
	assert.Same(t, s.mcp, s.MCP())
	assert.NotNil(t, s.logger)
}

func TestServer_RegisterTools(t *testing.T) {
	s := newRegisteredServer()

	result := s.MCP().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	names := make([]string, 0, len(response.Result.Tools))
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"health", "ask_invoices", "train_knowledge"}, names)
}

func TestServer_NewStreamableHTTPServer(t *testing.T) {
	s := NewServer("test-server", "1.0.0", zap.NewNop())
	assert.NotNil(t, s.NewStreamableHTTPServer())
}

func TestServer_HandlerServesToolCall(t *testing.T) {
	s := newRegisteredServer()

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"ask_invoices","arguments":{"question":"anything"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `SELECT 1`)
}
