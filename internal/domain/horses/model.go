package horses

import "time"

// Sex define el sexo del caballo.
// @Enum mare, stallion, gelding, unknown
type Sex string

const (
	SexMare     Sex = "mare"
	SexStallion Sex = "stallion"
	SexGelding  Sex = "gelding"
	SexUnknown  Sex = "unknown"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMare, SexStallion, SexGelding, SexUnknown:
		return true
	}
	return false
}

// Horse es el sujeto que se comparte. Pertenece a un único tenant (establo).
type Horse struct {
	ID       string
	TenantID string

	Name  string
	Breed string
	Sex   Sex
	Color string

	BirthDate *time.Time
	UELN      string // Universal Equine Life Number
	Microchip string
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity son los campos identificatorios que se exponen en una vista
// compartida. Notes queda fuera a propósito.
type Identity struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Breed     string     `json:"breed"`
	Sex       Sex        `json:"sex"`
	Color     string     `json:"color,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	UELN      string     `json:"ueln,omitempty"`
	Microchip string     `json:"microchip,omitempty"`
}

func (h Horse) Identity() Identity {
	return Identity{
		ID:        h.ID,
		Name:      h.Name,
		Breed:     h.Breed,
		Sex:       h.Sex,
		Color:     h.Color,
		BirthDate: h.BirthDate,
		UELN:      h.UELN,
		Microchip: h.Microchip,
	}
}
