package shares

import (
	"time"

	"stable-sharing/internal/domain/scope"
)

// State define el estado guardado de un share.
// @Enum active, revoked, expired
type State string

const (
	StateActive  State = "active"
	StateRevoked State = "revoked"
	// StateExpired sólo se escribe cuando el dueño revoca un share ya vencido.
	StateExpired State = "expired"
)

// Share es un link público a la historia de un caballo.
// El token en claro no se guarda; sólo TokenDigest.
type Share struct {
	ID          string
	TenantID    string // dueño
	HorseID     string
	TokenDigest string

	RecipientEmail string

	// Exactamente uno de PackKey / Scope.
	PackKey string
	Scope   *scope.Descriptor

	// Ventana extra del share (se intersecta con la del pack).
	From *time.Time
	To   *time.Time

	ExpiresAt *time.Time
	State     State

	CreatedBy string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsEffective es la única definición de "el link funciona". Resolver, listados
// y vistas de admin la usan; el estado expired guardado no se consulta.
func IsEffective(s Share, now time.Time) bool {
	if s.State != StateActive {
		return false
	}
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return false
	}
	return true
}

// Window devuelve la ventana propia del share como descriptor sin categorías.
func (s Share) Window() scope.Descriptor {
	return scope.Descriptor{From: s.From, To: s.To}
}

// BaseScope combina el scope base (pack o custom) con la ventana del share.
func (s Share) BaseScope(base scope.Descriptor) scope.Descriptor {
	return base.Narrow(s.From, s.To)
}
