package logging

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSanitizeConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "keyword format password",
			input:    "host=localhost password=secret123 dbname=flowbit_analytics",
			expected: "host=localhost password=[REDACTED] dbname=flowbit_analytics",
		},
		{
			name:     "url format with user and password",
			input:    "postgres://user:secret@db:5432/flowbit_analytics?sslmode=disable",
			expected: "postgres://[REDACTED]@[REDACTED]/flowbit_analytics?sslmode=disable",
		},
		{
			name:     "url without credentials is untouched",
			input:    "postgres://db:5432/flowbit_analytics",
			expected: "postgres://db:5432/flowbit_analytics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeConnectionString(tt.input); got != tt.expected {
				t.Errorf("SanitizeConnectionString(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "groq key in message",
			err:      errors.New("dial failed: api key gsk_abcdefghijklmnop1234 rejected"),
			expected: "dial failed: api key [REDACTED] rejected",
		},
		{
			name:     "connection url in message",
			err:      errors.New("failed to connect to postgres://user:pw@10.0.0.1:5432/db"),
			expected: "failed to connect to postgres://[REDACTED]@[REDACTED]/db",
		},
		{
			name:     "bearer token",
			err:      errors.New("401 for Authorization: Bearer abc.def.ghi"),
			expected: "401 for Authorization: Bearer [REDACTED]",
		},
		{
			name:     "plain sql error is preserved",
			err:      errors.New(`ERROR: relation "Invoices" does not exist (SQLSTATE 42P01)`),
			expected: `ERROR: relation "Invoices" does not exist (SQLSTATE 42P01)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeError(tt.err); got != tt.expected {
				t.Errorf("SanitizeError() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeQuery(t *testing.T) {
	t.Run("collapses whitespace", func(t *testing.T) {
		got := SanitizeQuery("\n  SELECT *\n   FROM \"Invoice\"\n  LIMIT 20\n")
		if got != `SELECT * FROM "Invoice" LIMIT 20` {
			t.Errorf("unexpected result: %q", got)
		}
	})

	t.Run("truncates long queries", func(t *testing.T) {
		got := SanitizeQuery(strings.Repeat("a", 200))
		if len(got) != MaxQueryLogLength+3 {
			t.Errorf("expected length %d, got %d", MaxQueryLogLength+3, len(got))
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("expected ellipsis suffix, got %q", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := SanitizeQuery(""); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString() = %q", got)
	}
	if got := TruncateString("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("TruncateString() = %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("production", "debug")
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	if _, err := NewLogger("local", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}
