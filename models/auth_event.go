package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthEventType categorizes entries in the auth audit trail.
type AuthEventType string

const (
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLoginThrottled AuthEventType = "login_throttled"
	EventLogout         AuthEventType = "logout"
	EventRedirectIssued AuthEventType = "redirect_issued"
	EventCodeRedeemed   AuthEventType = "code_redeemed"
	EventGuardRejected  AuthEventType = "guard_rejected"
)

// AuthEvent is one row of the auth audit trail.
type AuthEvent struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Type      AuthEventType `json:"type" db:"event_type"`
	UserID    string        `json:"userId,omitempty" db:"user_id"`
	Email     string        `json:"email,omitempty" db:"email"`
	Role      Role          `json:"role,omitempty" db:"role"`
	Source    string        `json:"source" db:"source"` // portal or desk name
	RemoteIP  string        `json:"remoteIp,omitempty" db:"remote_ip"`
	Detail    string        `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// NewAuthEvent creates an event stamped with a fresh id and the current time.
func NewAuthEvent(eventType AuthEventType, source string) *AuthEvent {
	return &AuthEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// TableName returns the table name for the AuthEvent model.
func (AuthEvent) TableName() string {
	return "auth_events"
}
