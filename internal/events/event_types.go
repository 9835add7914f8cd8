package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventTokensRefreshed EventType = "tokens_refreshed"
	EventRefreshRejected EventType = "refresh_rejected"
	EventUserRegistered  EventType = "user_registered"
	EventUserUpdated     EventType = "user_updated"
	EventUserDeactivated EventType = "user_deactivated"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventLoginSucceeded,
	EventLoginFailed,
	EventTokensRefreshed,
	EventRefreshRejected,
	EventUserRegistered,
	EventUserUpdated,
	EventUserDeactivated,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    *int64      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType EventType, userID *int64, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// AuthFailurePayload carries the server-side reason of a denied attempt.
type AuthFailurePayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// UserChangedPayload lists the profile fields touched by an update.
type UserChangedPayload struct {
	Fields []string `json:"fields"`
}
