package connections

import (
	"strings"
	"time"
)

// State define el estado del handshake.
// @Enum pending, accepted, rejected, revoked
type State string

const (
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
	StateRevoked  State = "revoked"
)

// Active: pending o accepted. Es lo que cuenta para la unicidad por par+tipo.
func (s State) Active() bool {
	return s == StatePending || s == StateAccepted
}

type Op string

const (
	OpAccept Op = "accept"
	OpReject Op = "reject"
	OpRevoke Op = "revoke"
)

var transitions = map[State]map[Op]State{
	StatePending: {
		OpAccept: StateAccepted,
		OpReject: StateRejected,
	},
	StateAccepted: {
		OpRevoke: StateRevoked,
	},
	// rejected y revoked son terminales
}

// CanTransition devuelve el estado destino de aplicar op desde from.
func CanTransition(from State, op Op) (State, bool) {
	to, ok := transitions[from][op]
	return to, ok
}

// Type es el tipo de relación B2B. Libre, en minúsculas.
type Type string

const DefaultType Type = "data_sharing"

// Connection es una relación bilateral entre dos tenants.
type Connection struct {
	ID                string
	InitiatorTenantID string
	// RecipientTenantID vacío = invitación externa por email; se fija al aceptar.
	RecipientTenantID string
	RecipientEmail    string
	Type              Type

	TokenDigest string // handshake; el token en claro sólo sale al crear
	State       State

	RejectReason string

	CreatedBy   string
	CreatedAt   time.Time
	RespondedBy string
	RespondedAt *time.Time
	RevokedBy   string
	RevokedAt   *time.Time
}

// Involves indica si el tenant es una de las partes.
func (c Connection) Involves(tenantID string) bool {
	return tenantID != "" && (c.InitiatorTenantID == tenantID || c.RecipientTenantID == tenantID)
}

// SameActiveKey indica si dos conexiones comparten la clave de unicidad de
// las conexiones vivas: (initiator, recipient, type), o (initiator,
// lower(email), type) mientras la invitación externa no tiene tenant destino.
// No mira estados.
func (c Connection) SameActiveKey(o Connection) bool {
	if c.InitiatorTenantID != o.InitiatorTenantID || c.Type != o.Type {
		return false
	}
	if c.RecipientTenantID != "" || o.RecipientTenantID != "" {
		return c.RecipientTenantID == o.RecipientTenantID
	}
	return c.RecipientEmail != "" && strings.EqualFold(c.RecipientEmail, o.RecipientEmail)
}

// Counterparty devuelve la otra parte ("" si tenantID no participa).
func (c Connection) Counterparty(tenantID string) string {
	switch tenantID {
	case c.InitiatorTenantID:
		return c.RecipientTenantID
	case c.RecipientTenantID:
		return c.InitiatorTenantID
	}
	return ""
}

// Parties en orden initiator, recipient (sin vacíos).
func (c Connection) Parties() []string {
	out := []string{c.InitiatorTenantID}
	if c.RecipientTenantID != "" {
		out = append(out, c.RecipientTenantID)
	}
	return out
}
