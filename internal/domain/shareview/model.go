package shareview

import (
	"time"

	"stable-sharing/internal/domain/horses"
	"stable-sharing/internal/domain/records"
	"stable-sharing/internal/domain/scope"
)

// RecordView es un record tal como lo ve un tercero. No expone la storage
// key del archivo ni quién lo cargó.
type RecordView struct {
	ID          string         `json:"id"`
	Category    scope.Category `json:"category"`
	Kind        string         `json:"kind,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Title       string         `json:"title"`
	Notes       string         `json:"notes,omitempty"`
	FileName    string         `json:"file_name,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
}

// Projection es la vista de sólo lectura. Una categoría fuera de scope queda
// en nil (JSON null); una categoría permitida sin datos es una lista vacía.
type Projection struct {
	Horse      horses.Identity `json:"horse"`
	Veterinary []RecordView    `json:"veterinary"`
	Laboratory []RecordView    `json:"laboratory"`
	Files      []RecordView    `json:"files"`
}

func (p *Projection) set(c scope.Category, items []RecordView) {
	switch c {
	case scope.CategoryVeterinary:
		p.Veterinary = items
	case scope.CategoryLaboratory:
		p.Laboratory = items
	case scope.CategoryFiles:
		p.Files = items
	}
}

// ShareView es el resultado de resolver un link público.
type ShareView struct {
	Scope     scope.Descriptor `json:"scope"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	Data      Projection       `json:"data"`
}

// GrantView es el resultado de leer bajo un consent grant.
type GrantView struct {
	GrantID      string           `json:"grant_id"`
	ConnectionID string           `json:"connection_id"`
	ForwardOnly  bool             `json:"forward_only"`
	Scope        scope.Descriptor `json:"scope"`
	Data         Projection       `json:"data"`
}

func toRecordView(rec records.Record) RecordView {
	return RecordView{
		ID:          rec.ID,
		Category:    rec.Category,
		Kind:        rec.Kind,
		OccurredAt:  rec.OccurredAt,
		Title:       rec.Title,
		Notes:       rec.Notes,
		FileName:    rec.FileName,
		ContentType: rec.ContentType,
	}
}
