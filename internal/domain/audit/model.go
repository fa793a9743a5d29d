package audit

import (
	"time"

	"stable-sharing/internal/domain/scope"
)

type Kind string

const (
	KindCreated         Kind = "created"
	KindAccessed        Kind = "accessed"
	KindRevoked         Kind = "revoked"
	KindExpiredDetected Kind = "expired_detected"
	KindAccepted        Kind = "accepted"
	KindRejected        Kind = "rejected"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindAccessed, KindRevoked, KindExpiredDetected, KindAccepted, KindRejected:
		return true
	}
	return false
}

// Entry es una fila append-only del log de sharing. Exactamente uno de
// ShareID / ConnectionID va seteado.
type Entry struct {
	ID           string
	ShareID      string
	ConnectionID string
	GrantID      string // opcional, sólo con ConnectionID

	Actor string // user id o auth.Anonymous
	Kind  Kind
	At    time.Time

	// Scope efectivamente aplicado (accessed) o emitido (created). nil si no aplica.
	Scope  *scope.Descriptor
	Detail string
}
