// Package logger provides structured logging utilities for the BantAI risk service
package logger

import (
	"time"

	"go.uber.org/zap"
)

// AuditEvent represents an audit log event
type AuditEvent struct {
	EventType  string                 `json:"event_type"`
	Actor      string                 `json:"actor"` // admin or system identity performing the action
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id"`
	Status     string                 `json:"status"` // success, failure, denied
	Reason     string                 `json:"reason,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.With(zap.String("log_type", "audit")),
	}
}

// Log logs an audit event
func (a *AuditLogger) Log(event *AuditEvent) {
	fields := []zap.Field{
		zap.String("event_type", event.EventType),
		zap.String("actor", event.Actor),
		zap.String("action", event.Action),
		zap.String("resource", event.Resource),
		zap.String("resource_id", event.ResourceID),
		zap.String("status", event.Status),
		zap.Time("timestamp", event.Timestamp),
	}

	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}

	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	// Log at appropriate level based on status
	switch event.Status {
	case "failure", "error":
		a.logger.Error("Audit event", fields...)
	case "denied", "forbidden":
		a.logger.Warn("Audit event", fields...)
	default:
		a.logger.Info("Audit event", fields...)
	}
}

// LogVerdictCreated logs the creation of a risk verdict record
func (a *AuditLogger) LogVerdictCreated(recordID, userID, classification, action string) {
	a.Log(&AuditEvent{
		EventType:  "verdict.created",
		Actor:      "risk-engine",
		Action:     "create",
		Resource:   "verdict",
		ResourceID: recordID,
		Status:     "success",
		Metadata: map[string]interface{}{
			"user_id":        userID,
			"classification": classification,
			"recommended":    action,
		},
		Timestamp: time.Now(),
	})
}

// LogVerdictReviewed logs an admin review of a verdict record
func (a *AuditLogger) LogVerdictReviewed(recordID, reviewer, adminAction string) {
	a.Log(&AuditEvent{
		EventType:  "verdict.reviewed",
		Actor:      reviewer,
		Action:     "review",
		Resource:   "verdict",
		ResourceID: recordID,
		Status:     "success",
		Metadata: map[string]interface{}{
			"admin_action": adminAction,
		},
		Timestamp: time.Now(),
	})
}

// LogThreatListChange logs a change to the attack-IP threat list
func (a *AuditLogger) LogThreatListChange(actor, action, ip string) {
	a.Log(&AuditEvent{
		EventType:  "threatlist." + action,
		Actor:      actor,
		Action:     action,
		Resource:   "threat_ip",
		ResourceID: ip,
		Status:     "success",
		Timestamp:  time.Now(),
	})
}
