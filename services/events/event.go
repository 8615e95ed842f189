package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/pizza-app/auth-service/models"
)

// Type names an auth lifecycle event
type Type string

const (
	TypeUserRegistered   Type = "user.registered"
	TypeUserLoggedIn     Type = "user.logged_in"
	TypeSessionRefreshed Type = "session.refreshed"
	TypeUserLoggedOut    Type = "user.logged_out"
)

// Event is one auth lifecycle transition. It never carries credentials or tokens.
type Event struct {
	ID         string      `json:"id"`
	Type       Type        `json:"type"`
	UserID     int64       `json:"userId"`
	Role       models.Role `json:"role"`
	SessionID  int64       `json:"sessionId,omitempty"`
	Tenant     string      `json:"tenant,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// New creates an event stamped with a fresh id and the current time
func New(t Type, userID int64, role models.Role, sessionID int64) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       t,
		UserID:     userID,
		Role:       role,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
	}
}

// WithTenant sets the tenant reference
func (e *Event) WithTenant(tenant string) *Event {
	e.Tenant = tenant
	return e
}
