package records

import (
	"time"

	"stable-sharing/internal/domain/scope"
)

type Status string

const (
	StatusActive Status = "active"
	StatusVoided Status = "voided"
)

// Record es una entrada del historial de un caballo. La categoría decide bajo
// qué capability de scope se comparte.
type Record struct {
	ID       string
	HorseID  string
	TenantID string

	Category scope.Category
	Kind     string // vaccination, blood_panel, xray, deworming...

	// OccurredAt es la fecha clínica; los filtros de ventana usan este campo.
	OccurredAt time.Time
	RecordedAt time.Time

	Title string
	Notes string

	// Sólo para CategoryFiles
	FileName    string
	ContentType string
	StorageKey  string

	CreatedBy string
	Status    Status
}

// Filter para listados. Categories vacío = todas.
type Filter struct {
	Categories []scope.Category
	From       *time.Time
	To         *time.Time
	// Limit <= 0: sin límite.
	Limit int
}
