// Package sql guards the statements the service is willing to execute.
package sql

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrEmptyStatement indicates no SQL text was supplied.
	ErrEmptyStatement = errors.New("empty SQL statement")
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
	// ErrNotReadOnly indicates the statement could modify data or schema.
	ErrNotReadOnly = errors.New("only read-only SELECT or WITH statements are permitted")
)

// forbiddenKeywords may not appear as bare words in a read-only statement.
var forbiddenKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"DROP": true, "ALTER": true, "CREATE": true, "TRUNCATE": true,
	"GRANT": true, "REVOKE": true, "COPY": true, "VACUUM": true,
	"CALL": true, "DO": true, "EXECUTE": true, "SET": true,
}

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize checks SQL for multiple statements and strips the trailing semicolon.
//
// The validation order is:
// 1. Trim whitespace and strip one trailing semicolon
// 2. Reject any remaining semicolon outside string literals and comments
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return ValidationResult{Error: ErrEmptyStatement}
	}

	normalized := stripTrailingSemicolon(sqlQuery)

	for _, tok := range scan(normalized) {
		if tok == ";" {
			return ValidationResult{Error: ErrMultipleStatements}
		}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// IsReadOnly reports whether the statement starts with SELECT or WITH and contains
// no data- or schema-modifying keyword outside literals, quoted identifiers and comments.
func IsReadOnly(sqlQuery string) error {
	tokens := scan(sqlQuery)
	if len(tokens) == 0 {
		return ErrEmptyStatement
	}

	first := strings.ToUpper(tokens[0])
	if first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: statement starts with %s", ErrNotReadOnly, first)
	}

	for _, tok := range tokens[1:] {
		if forbiddenKeywords[strings.ToUpper(tok)] {
			return fmt.Errorf("%w: found %s", ErrNotReadOnly, strings.ToUpper(tok))
		}
	}
	return nil
}

// IsPlausible validates that text is a single, read-only SQL statement and returns
// its normalized form. Used to accept or reject model-generated SQL.
func IsPlausible(text string) (string, error) {
	result := ValidateAndNormalize(text)
	if result.Error != nil {
		return "", result.Error
	}
	if err := IsReadOnly(result.NormalizedSQL); err != nil {
		return "", err
	}
	return result.NormalizedSQL, nil
}

// scan splits SQL into bare words and semicolons, skipping string literals,
// quoted identifiers, dollar-quoted bodies and comments.
func scan(sqlQuery string) []string {
	var tokens []string
	runes := []rune(sqlQuery)
	n := len(runes)

	for i := 0; i < n; {
		r := runes[i]
		switch {
		case r == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i < n && !(runes[i] == '*' && i+1 < n && runes[i+1] == '/') {
				i++
			}
			i += 2
		case r == '\'':
			i = skipQuoted(runes, i, r, isEscapeStringPrefix(runes, i))
		case r == '"':
			i = skipQuoted(runes, i, r, false)
		case r == '$':
			i = skipDollarQuoted(runes, i)
		case r == ';':
			tokens = append(tokens, ";")
			i++
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < n && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, string(runes[start:i]))
		default:
			i++
		}
	}
	return tokens
}

// isEscapeStringPrefix reports whether the quote at i opens an E'...' literal.
func isEscapeStringPrefix(runes []rune, i int) bool {
	if i == 0 || (runes[i-1] != 'E' && runes[i-1] != 'e') {
		return false
	}
	if i >= 2 {
		prev := runes[i-2]
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) || prev == '_' {
			return false
		}
	}
	return true
}

// skipQuoted returns the index after the closing quote. Doubled quotes stay
// inside the literal. Backslash escapes only apply to E'...' literals
// (standard_conforming_strings is on).
func skipQuoted(runes []rune, i int, quote rune, backslashEscapes bool) int {
	n := len(runes)
	i++
	for i < n {
		switch {
		case runes[i] == '\\' && backslashEscapes:
			i += 2
		case runes[i] == quote && i+1 < n && runes[i+1] == quote:
			i += 2
		case runes[i] == quote:
			return i + 1
		default:
			i++
		}
	}
	return n
}

// skipDollarQuoted handles $tag$ ... $tag$ bodies. A lone $ (as in $1) is skipped.
func skipDollarQuoted(runes []rune, i int) int {
	n := len(runes)
	j := i + 1
	for j < n && (unicode.IsLetter(runes[j]) || runes[j] == '_') {
		j++
	}
	if j >= n || runes[j] != '$' {
		return i + 1
	}
	tag := string(runes[i : j+1])
	body := string(runes[j+1:])
	end := strings.Index(body, tag)
	if end < 0 {
		return n
	}
	return j + 1 + len([]rune(body[:end])) + len([]rune(tag))
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace around it.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
