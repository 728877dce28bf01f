package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Registration events
	RegistrationStartedEvent AuditEventType = "REGISTRATION_STARTED"
	OTPDeliveryFailureEvent  AuditEventType = "OTP_DELIVERY_FAILED"
	OTPVerifyEvent           AuditEventType = "OTP_VERIFIED"
	OTPFailureEvent          AuditEventType = "OTP_VERIFICATION_FAILED"
	IdentityCreatedEvent     AuditEventType = "IDENTITY_CREATED"

	// Authentication events
	UserLoginEvent        AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent AuditEventType = "USER_LOGIN_FAILED"

	// Authorization events
	RoleChangedEvent  AuditEventType = "ROLE_CHANGED"
	AccessDeniedEvent AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a security-relevant event
type AuditEvent struct {
	EventType AuditEventType `json:"event_type"`
	SubjectID string         `json:"subject_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ErrorMsg  string         `json:"error_msg,omitempty"`
	Success   bool           `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
		Success:   true,
	}
}

// WithError marks the event as failed
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithSubject sets the subject id
func (e *AuditEvent) WithSubject(id string) *AuditEvent {
	e.SubjectID = id
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value any) *AuditEvent {
	e.Metadata[key] = value
	return e
}

// NopAuditLogger discards every event
type NopAuditLogger struct{}

func (NopAuditLogger) LogEvent(context.Context, *AuditEvent) {}
