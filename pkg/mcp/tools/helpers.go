package tools

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// getOptionalString extracts an optional string argument, trimmed. Missing or
// non-string values yield "".
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}
