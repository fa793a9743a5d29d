package consents

import (
	"time"

	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/domain/scope"
)

// AccessLevel define el nivel de acceso de un grant.
// @Enum read, write
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)

func (a AccessLevel) Valid() bool {
	return a == AccessRead || a == AccessWrite
}

type State string

const (
	StateActive  State = "active"
	StateRevoked State = "revoked"
)

// Grant es un permiso direccional: el grantor deja ver un tipo de recurso al
// grantee, mientras la conexión padre siga aceptada.
type Grant struct {
	ID              string
	ConnectionID    string
	GrantorTenantID string
	GranteeTenantID string

	ResourceType scope.Category
	AccessLevel  AccessLevel

	From *time.Time
	To   *time.Time

	// ForwardOnly: el grantee no puede volver a compartir lo recibido.
	ForwardOnly bool

	State      State
	FromPreset bool

	CreatedBy string
	CreatedAt time.Time
	RevokedBy string
	RevokedAt *time.Time
}

// Scope es el descriptor equivalente: una categoría + la ventana del grant.
func (g Grant) Scope() scope.Descriptor {
	return scope.Only(g.ResourceType).Narrow(g.From, g.To)
}

// IsGrantEffective se recalcula en cada uso; nunca se guarda.
// Activo + conexión aceptada + now dentro de la ventana (To inclusivo por día).
func IsGrantEffective(g Grant, c connections.Connection, now time.Time) bool {
	if g.State != StateActive {
		return false
	}
	if c.ID != g.ConnectionID || c.State != connections.StateAccepted {
		return false
	}
	return scope.Descriptor{From: g.From, To: g.To}.Contains(now)
}
