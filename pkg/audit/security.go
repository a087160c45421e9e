// Package audit records security-relevant events of a generation run in
// structured JSON for SIEM consumption.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSuspiciousValue is logged when libinjection flags a generated value.
	EventSuspiciousValue SecurityEventType = "suspicious_generated_value"
	// EventValidationFailure is logged when a generated record fails model validation.
	EventValidationFailure SecurityEventType = "record_validation_failure"
	// EventRecordsPersisted is logged once per committed write.
	EventRecordsPersisted SecurityEventType = "records_persisted"
)

// SecurityEvent represents an auditable event with the run it belongs to.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID uuid.UUID         `json:"request_id"`
	Table     string            `json:"table"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SuspiciousValueDetails contains specifics of a flagged generated value.
type SuspiciousValueDetails struct {
	Column      string `json:"column"`
	Value       string `json:"value"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
	Row         int    `json:"row"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor logging under the "security_audit"
// namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogSuspiciousValue records a generated value matching a SQL injection
// fingerprint. The value is still written as a bound parameter, so this is
// a warning rather than a blocked attack.
func (a *SecurityAuditor) LogSuspiciousValue(_ context.Context, requestID uuid.UUID, table string, details SuspiciousValueDetails) {
	details.Value = logging.TruncateString(details.Value, logging.MaxContentLogLength)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSuspiciousValue,
		RequestID: requestID,
		Table:     table,
		Details:   details,
		Severity:  "warning",
	}

	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Generated value matches SQL injection pattern",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID.String()),
		zap.String("table", table),
		zap.String("column", details.Column),
		zap.Int("row", details.Row),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", "warning"),
	)
}

// LogValidationFailure records a generated record rejected by model
// validation.
func (a *SecurityAuditor) LogValidationFailure(_ context.Context, requestID uuid.UUID, table string, errorMessage string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventValidationFailure,
		RequestID: requestID,
		Table:     table,
		Details: map[string]string{
			"error": errorMessage,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Generated record failed validation",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID.String()),
		zap.String("table", table),
		zap.String("error", errorMessage),
		zap.String("severity", "warning"),
	)
}

// LogRecordsPersisted records a committed write.
func (a *SecurityAuditor) LogRecordsPersisted(_ context.Context, requestID uuid.UUID, table string, count int) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventRecordsPersisted,
		RequestID: requestID,
		Table:     table,
		Details: map[string]int{
			"count": count,
		},
		Severity: "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Generated records persisted",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID.String()),
		zap.String("table", table),
		zap.Int("count", count),
		zap.String("severity", "info"),
	)
}
