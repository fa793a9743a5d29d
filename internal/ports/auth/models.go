package auth

import "strings"

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	TenantID string

	// Tenants a los que pertenece el usuario (incluye TenantID si viene).
	TenantIDs []string
}

// Actor es la identidad verificada con la que operan los servicios.
type Actor struct {
	ID        string
	TenantIDs []string
}

// Actor deriva el actor desde los claims, deduplicando tenants.
func (c Claims) Actor() Actor {
	seen := map[string]struct{}{}
	tenants := make([]string, 0, len(c.TenantIDs)+1)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		tenants = append(tenants, id)
	}
	add(c.TenantID)
	for _, t := range c.TenantIDs {
		add(t)
	}
	return Actor{ID: strings.TrimSpace(c.UserID), TenantIDs: tenants}
}

// MemberOf indica si el actor pertenece al tenant.
func (a Actor) MemberOf(tenantID string) bool {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return false
	}
	for _, t := range a.TenantIDs {
		if t == tenantID {
			return true
		}
	}
	return false
}

// Anonymous es el actor que se registra en auditoría para links públicos.
const Anonymous = "anonymous"

// TenantOrDefault devuelve requested si viene; si no, el único tenant del
// actor. Con varios tenants y sin requested devuelve "".
func (a Actor) TenantOrDefault(requested string) string {
	if r := strings.TrimSpace(requested); r != "" {
		return r
	}
	if len(a.TenantIDs) == 1 {
		return a.TenantIDs[0]
	}
	return ""
}
