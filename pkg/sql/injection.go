package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes text that libinjection flagged as SQL injection.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string // The text that was checked
}

// CheckTextForInjection runs libinjection over free text such as a user question.
// Returns nil when the text looks clean.
//
// Example:
//
//	CheckTextForInjection("show top vendors")            // nil
//	CheckTextForInjection("x' OR '1'='1")                // IsSQLi == true
//	CheckTextForInjection("'; DROP TABLE \"Invoice\"--") // IsSQLi == true
func CheckTextForInjection(text string) *InjectionCheckResult {
	if text == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(text)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Input:       text,
	}
}
