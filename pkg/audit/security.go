// Package audit logs security-relevant events in a structured form that a SIEM can ingest.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/llm"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a question.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventGeneratedSQLRejected is logged when backend SQL fails the plausibility check.
	EventGeneratedSQLRejected SecurityEventType = "generated_sql_rejected"
)

// Severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	EventID   uuid.UUID         `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"`
}

// InjectionDetails describes a question libinjection flagged.
type InjectionDetails struct {
	Question    string `json:"question"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// RejectedSQLDetails describes generated SQL that was not executed.
type RejectedSQLDetails struct {
	SQL    string `json:"sql"`
	Reason string `json:"reason"`
}

// SecurityAuditor logs security events. A nil *SecurityAuditor discards them.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates an auditor logging under the "security_audit" name.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

// LogInjectionAttempt records a flagged question at ERROR level.
// The question is truncated and never logged in full.
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, details InjectionDetails) {
	if a == nil {
		return
	}
	details.Question = logging.SanitizeQuery(details.Question)
	event := a.newEvent(ctx, EventSQLInjectionAttempt, SeverityCritical, details)

	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", marshalEvent(event)),
		zap.String("event_id", event.EventID.String()),
		zap.String("request_id", event.RequestID),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", event.Severity),
	)
}

// LogRejectedSQL records generated SQL that failed validation at WARN level.
func (a *SecurityAuditor) LogRejectedSQL(ctx context.Context, sqlText string, reason error) {
	if a == nil {
		return
	}
	details := RejectedSQLDetails{
		SQL:    logging.SanitizeQuery(sqlText),
		Reason: logging.SanitizeError(reason),
	}
	event := a.newEvent(ctx, EventGeneratedSQLRejected, SeverityWarning, details)

	a.logger.Warn("Generated SQL rejected",
		zap.String("event_json", marshalEvent(event)),
		zap.String("event_id", event.EventID.String()),
		zap.String("request_id", event.RequestID),
		zap.String("reason", details.Reason),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) newEvent(ctx context.Context, eventType SecurityEventType, severity string, details any) SecurityEvent {
	return SecurityEvent{
		EventID:   uuid.New(),
		Timestamp: a.now().UTC(),
		EventType: eventType,
		RequestID: llm.RequestIDFromContext(ctx),
		Details:   details,
		Severity:  severity,
	}
}

func marshalEvent(event SecurityEvent) string {
	// Details are plain string structs; marshaling cannot fail.
	b, _ := json.Marshal(event)
	return string(b)
}
