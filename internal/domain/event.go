package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventUserRegistered    EventType = "user.registered"
	EventSessionLogout     EventType = "session.logout"
	EventSessionRevokedAll EventType = "session.revoked_all"
)

// Event is a security-relevant fact published for downstream consumers
// (notifications, audit).
type Event struct {
	Type       EventType `json:"type"`
	Subject    string    `json:"subject"`
	TokenID    string    `json:"token_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventLog keeps published events for auditing. Listings are newest first.
type EventLog interface {
	EventPublisher
	ListBySubject(ctx context.Context, subject string, limit, offset int) ([]Event, error)
	ListRecent(ctx context.Context, limit, offset int) ([]Event, int, error)
}
