package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{
			name:  "string value",
			input: json.RawMessage(`"hello"`),
			want:  "hello",
		},
		{
			name:  "integer value",
			input: json.RawMessage(`42`),
			want:  "42",
		},
		{
			name:  "float value",
			input: json.RawMessage(`3.14`),
			want:  "3.14",
		},
		{
			name:  "boolean true",
			input: json.RawMessage(`true`),
			want:  "true",
		},
		{
			name:  "boolean false",
			input: json.RawMessage(`false`),
			want:  "false",
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  "",
		},
		{
			name:  "empty raw message",
			input: json.RawMessage{},
			want:  "",
		},
		{
			name:  "nil raw message",
			input: nil,
			want:  "",
		},
		{
			name:  "large integer preserves precision",
			input: json.RawMessage(`9007199254740992`),
			want:  "9007199254740992",
		},
		{
			name:  "nested object falls back to raw string",
			input: json.RawMessage(`{"key":"value"}`),
			want:  `{"key":"value"}`,
		},
		{
			name:  "array falls back to raw string",
			input: json.RawMessage(`[1,2,3]`),
			want:  `[1,2,3]`,
		},
		{
			name:  "negative integer",
			input: json.RawMessage(`-7`),
			want:  "-7",
		},
		{
			name:  "zero",
			input: json.RawMessage(`0`),
			want:  "0",
		},
		{
			name:  "empty string",
			input: json.RawMessage(`""`),
			want:  "",
		},
		{
			name:  "string is trimmed",
			input: json.RawMessage(`"  ACME GmbH "`),
			want:  "ACME GmbH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestFlexibleFloatValue(t *testing.T) {
	tests := []struct {
		name   string
		input  json.RawMessage
		want   float64
		wantOK bool
	}{
		{"json number", json.RawMessage(`1250.5`), 1250.5, true},
		{"negative number", json.RawMessage(`-59.5`), -59.5, true},
		{"plain numeric string", json.RawMessage(`"19.99"`), 19.99, true},
		{"german decimal comma", json.RawMessage(`"1.234,56"`), 1234.56, true},
		{"english thousands separator", json.RawMessage(`"1,234.56"`), 1234.56, true},
		{"currency symbol", json.RawMessage(`"€ 42,00"`), 42, true},
		{"percent string", json.RawMessage(`"2%"`), 2, true},
		{"null", json.RawMessage(`null`), 0, false},
		{"empty", nil, 0, false},
		{"non-numeric string", json.RawMessage(`"n/a"`), 0, false},
		{"boolean", json.RawMessage(`true`), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FlexibleFloatValue(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FlexibleFloatValue(%s) ok = %v, want %v", string(tt.input), ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FlexibleFloatValue(%s) = %v, want %v", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestFlexibleIntValue(t *testing.T) {
	tests := []struct {
		name   string
		input  json.RawMessage
		want   int
		wantOK bool
	}{
		{"integer", json.RawMessage(`30`), 30, true},
		{"integer string", json.RawMessage(`"14"`), 14, true},
		{"rounds fraction", json.RawMessage(`2.6`), 3, true},
		{"null", json.RawMessage(`null`), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FlexibleIntValue(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FlexibleIntValue(%s) = (%d, %v), want (%d, %v)", string(tt.input), got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
