package sharepacks

import (
	"time"

	"stable-sharing/internal/domain/scope"
)

// Pack es un preset con nombre de scope. TenantID vacío = pack de sistema.
type Pack struct {
	TenantID    string
	Key         string
	Name        string
	Description string
	Scope       scope.Descriptor
	IsSystem    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
