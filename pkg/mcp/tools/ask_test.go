package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

func TestAskInvoicesTool_ReturnsOutcome(t *testing.T) {
	row := models.NewRow()
	row.Set("vendor", "Acme GmbH")
	row.Set("total_spend", 1250.5)

	svc := &mockQueryService{outcome: &models.QueryOutcome{
		SQL:  `SELECT v.name AS vendor FROM "Vendor" v`,
		Data: []models.Row{row},
	}}
	s := newTestMCPServer()
	RegisterAskInvoicesTool(s, &QueryToolDeps{QueryService: svc})

	response := callTool(t, s, "ask_invoices", `{"question":"Top vendors by spend"}`)

	require.Nil(t, response.Error)
	require.Len(t, response.Result.Content, 1)
	assert.False(t, response.Result.IsError)
	assert.Equal(t, "Top vendors by spend", svc.question)
	assert.JSONEq(t,
		`{"sql":"SELECT v.name AS vendor FROM \"Vendor\" v","data":[{"vendor":"Acme GmbH","total_spend":1250.5}],"error":null}`,
		response.Result.Content[0].Text)
}

func TestAskInvoicesTool_ExecutionErrorCarriesCode(t *testing.T) {
	svc := &mockQueryService{outcome: models.NewFailedOutcome(
		`SELECT * FROM "Invoices"`,
		`ERROR: relation "Invoices" does not exist (SQLSTATE 42P01)`,
	)}
	s := newTestMCPServer()
	RegisterAskInvoicesTool(s, &QueryToolDeps{QueryService: svc})

	response := callTool(t, s, "ask_invoices", `{"question":"list invoices"}`)

	require.Nil(t, response.Error)
	assert.False(t, response.Result.IsError, "execution errors are part of the outcome")

	var result askResult
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &result))
	assert.Equal(t, `SELECT * FROM "Invoices"`, result.SQL)
	assert.Empty(t, result.Data)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "does not exist")
	assert.Equal(t, "undefined_table", result.ErrorCode)
}

func TestAskInvoicesTool_MissingQuestion(t *testing.T) {
	svc := &mockQueryService{}
	s := newTestMCPServer()
	RegisterAskInvoicesTool(s, &QueryToolDeps{QueryService: svc})

	response := callTool(t, s, "ask_invoices", `{}`)

	require.Nil(t, response.Error)
	assert.True(t, response.Result.IsError)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &errResp))
	assert.Equal(t, "invalid_parameters", errResp.Code)
	assert.Empty(t, svc.question, "service should not be called")
}

func TestAskInvoicesTool_BlankQuestion(t *testing.T) {
	svc := &mockQueryService{err: apperrors.ErrEmptyInput}
	s := newTestMCPServer()
	RegisterAskInvoicesTool(s, &QueryToolDeps{QueryService: svc})

	response := callTool(t, s, "ask_invoices", `{"question":"   "}`)

	assert.True(t, response.Result.IsError)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &errResp))
	assert.Equal(t, "invalid_parameters", errResp.Code)
	assert.Contains(t, errResp.Message, "cannot be empty")
}

func TestAskInvoicesTool_ServiceFailure(t *testing.T) {
	svc := &mockQueryService{err: errors.New("resolver exploded")}
	s := newTestMCPServer()
	RegisterAskInvoicesTool(s, &QueryToolDeps{QueryService: svc})

	response := callTool(t, s, "ask_invoices", `{"question":"anything"}`)

	require.NotNil(t, response.Error, "system failures surface as JSON-RPC errors")
	assert.Contains(t, response.Error.Message, "resolver exploded")
}
