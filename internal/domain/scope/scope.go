package scope

import (
	"strings"
	"time"

	"stable-sharing/internal/apperr"
)

// Category es una categoría de datos compartible de un caballo.
type Category string

const (
	CategoryVeterinary Category = "veterinary"
	CategoryLaboratory Category = "laboratory"
	CategoryFiles      Category = "files"
)

// AllCategories en orden estable. Al agregar una capability nueva hay que
// sumarla acá, en Descriptor y en Has/With.
var AllCategories = []Category{
	CategoryVeterinary,
	CategoryLaboratory,
	CategoryFiles,
}

// ParseCategory valida un nombre de categoría.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCategories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Descriptor indica qué categorías son visibles y en qué ventana de fechas.
// Es un valor inmutable: las operaciones devuelven copias.
type Descriptor struct {
	Veterinary bool `json:"include_veterinary" yaml:"include_veterinary"`
	Laboratory bool `json:"include_laboratory" yaml:"include_laboratory"`
	Files      bool `json:"include_files" yaml:"include_files"`

	// nil = sin límite en esa dirección
	From *time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	To   *time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`
}

// Has indica si la categoría está habilitada.
func (d Descriptor) Has(c Category) bool {
	switch c {
	case CategoryVeterinary:
		return d.Veterinary
	case CategoryLaboratory:
		return d.Laboratory
	case CategoryFiles:
		return d.Files
	default:
		return false
	}
}

// With devuelve una copia con la categoría habilitada o no.
func (d Descriptor) With(c Category, on bool) Descriptor {
	switch c {
	case CategoryVeterinary:
		d.Veterinary = on
	case CategoryLaboratory:
		d.Laboratory = on
	case CategoryFiles:
		d.Files = on
	}
	return d
}

// Categories devuelve las categorías habilitadas, en el orden de AllCategories.
func (d Descriptor) Categories() []Category {
	out := make([]Category, 0, len(AllCategories))
	for _, c := range AllCategories {
		if d.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// IsEmpty: ninguna categoría habilitada.
func (d Descriptor) IsEmpty() bool {
	return len(d.Categories()) == 0
}

// Validate chequea el invariante From <= To.
func (d Descriptor) Validate() error {
	return ValidateWindow(d.From, d.To)
}

// ValidateWindow chequea una ventana suelta (usada también por grants).
func ValidateWindow(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return apperr.Wrap(apperr.ErrInvalidDateRange, "date_from %s is after date_to %s",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return nil
}

// Intersect combina dos descriptores: AND de categorías, ventana más estrecha.
// Nunca amplía ninguno de los dos.
func (d Descriptor) Intersect(o Descriptor) Descriptor {
	out := Descriptor{}
	for _, c := range AllCategories {
		out = out.With(c, d.Has(c) && o.Has(c))
	}
	out.From = laterOf(d.From, o.From)
	out.To = earlierOf(d.To, o.To)
	return out
}

// Narrow aplica sólo una ventana de fechas adicional.
func (d Descriptor) Narrow(from, to *time.Time) Descriptor {
	d.From = laterOf(d.From, from)
	d.To = earlierOf(d.To, to)
	return d
}

// WindowEmpty indica que tras intersectar la ventana no contiene ningún instante.
func (d Descriptor) WindowEmpty() bool {
	return d.From != nil && d.To != nil && d.From.After(endOfDay(*d.To))
}

// Contains indica si t cae en la ventana. Los límites son inclusivos y To
// se toma a nivel de día (un registro del mismo día que To entra).
func (d Descriptor) Contains(t time.Time) bool {
	if d.From != nil && t.Before(*d.From) {
		return false
	}
	if d.To != nil && t.After(endOfDay(*d.To)) {
		return false
	}
	return true
}

// UpperBound devuelve el límite superior efectivo (fin del día de To) para queries.
func (d Descriptor) UpperBound() *time.Time {
	if d.To == nil {
		return nil
	}
	t := endOfDay(*d.To)
	return &t
}

// Full habilita todas las categorías sin ventana. Sólo para tests y seeds.
func Full() Descriptor {
	d := Descriptor{}
	for _, c := range AllCategories {
		d = d.With(c, true)
	}
	return d
}

// Only habilita exactamente las categorías indicadas.
func Only(cats ...Category) Descriptor {
	d := Descriptor{}
	for _, c := range cats {
		d = d.With(c, true)
	}
	return d
}

func endOfDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func laterOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return cloneTime(b)
	case b == nil:
		return cloneTime(a)
	case a.After(*b):
		return cloneTime(a)
	default:
		return cloneTime(b)
	}
}

func earlierOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return cloneTime(b)
	case b == nil:
		return cloneTime(a)
	case a.Before(*b):
		return cloneTime(a)
	default:
		return cloneTime(b)
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
