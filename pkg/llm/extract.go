package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks some reasoning models emit.
var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// fencePattern captures the body of the first fenced code block, with or without a language tag.
var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// sqlPrefixPattern matches a leading "SQL:" label.
var sqlPrefixPattern = regexp.MustCompile(`(?i)^\s*sql\s*:\s*`)

// ExtractSQL pulls a SQL statement out of a model response that may wrap it in
// <think> tags, markdown fences or a "SQL:" label. Returns the trimmed text.
func ExtractSQL(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if m := fencePattern.FindStringSubmatch(cleaned); len(m) == 2 {
		cleaned = m[1]
	}

	cleaned = sqlPrefixPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
