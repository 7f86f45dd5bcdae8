package tools

import (
	"encoding/json"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse is a structured error returned as a tool result, so the calling
// model sees the code and message instead of a transport failure.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (bad arguments, no usable field).
// System failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "training_failed",
//	    "all provided training fields failed",
//	    result.Results,
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// sqlStateRegex matches PostgreSQL SQLSTATE codes in error messages like "(SQLSTATE 42601)".
var sqlStateRegex = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// sqlErrorCode maps the SQLSTATE embedded in an execution error message to a readable
// code. Messages without a SQLSTATE (timeouts, no database) map to "execution_error".
func sqlErrorCode(message string) string {
	matches := sqlStateRegex.FindStringSubmatch(message)
	if len(matches) < 2 {
		return "execution_error"
	}
	return mapSQLStateToCode(matches[1])
}

func mapSQLStateToCode(sqlState string) string {
	switch sqlState {
	case "42601":
		return "syntax_error"
	case "42703":
		return "undefined_column"
	case "42P01":
		return "undefined_table"
	case "42883":
		return "undefined_function"
	case "25006":
		return "read_only_transaction"
	case "57014":
		return "query_canceled"
	case "22012":
		return "division_by_zero"
	case "22P02":
		return "invalid_input"
	}

	switch sqlState[:2] {
	case "22":
		return "data_exception"
	case "42":
		return "sql_error"
	}
	return "sql_error"
}
