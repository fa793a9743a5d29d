package notify

import (
	"context"
	"time"
)

type EventKind string

const (
	EventConnectionRequested EventKind = "connection.requested"
	EventConnectionAccepted  EventKind = "connection.accepted"
	EventConnectionRejected  EventKind = "connection.rejected"
	EventConnectionRevoked   EventKind = "connection.revoked"
	EventGrantCreated        EventKind = "grant.created"
	EventGrantRevoked        EventKind = "grant.revoked"
)

// Event es lo que recibe el consumidor downstream (push/email viven fuera).
type Event struct {
	Kind         EventKind `json:"kind"`
	ConnectionID string    `json:"connection_id"`
	GrantID      string    `json:"grant_id,omitempty"`
	ActorID      string    `json:"actor_id"`
	TenantIDs    []string  `json:"tenant_ids"` // destinatarios
	At           time.Time `json:"at"`
}

// Notifier es fire-and-forget: sus errores nunca afectan la transición que lo disparó.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}
