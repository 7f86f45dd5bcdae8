// Package jsonutil reads loosely typed JSON values produced by document extraction,
// where the same field may arrive as a string, a number or a boolean.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling values that
// arrive as numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strings.TrimSpace(strVal)
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleFloatValue reads a number that may be encoded as a JSON number or as a
// string such as "1.234,56 €" or "-59.50". The boolean is false for null, empty
// or unparseable values.
func FlexibleFloatValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal, true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return 0, false
	}
	return parseDecimal(strVal)
}

// FlexibleIntValue reads an integer the same way as FlexibleFloatValue, rounding
// fractional values.
func FlexibleIntValue(raw json.RawMessage) (int, bool) {
	f, ok := FlexibleFloatValue(raw)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// parseDecimal accepts both "1,234.56" and "1.234,56"; whichever separator comes
// last is the decimal point.
func parseDecimal(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			return r
		default:
			return -1
		}
	}, s)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
