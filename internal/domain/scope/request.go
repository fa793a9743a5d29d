package scope

import (
	"strings"
	"time"

	"stable-sharing/internal/apperr"
)

// Request es la forma en que los handlers reciben un scope por JSON. Las
// fechas aceptan YYYY-MM-DD o RFC3339.
type Request struct {
	IncludeVeterinary bool   `json:"include_veterinary"`
	IncludeLaboratory bool   `json:"include_laboratory"`
	IncludeFiles      bool   `json:"include_files"`
	DateFrom          string `json:"date_from,omitempty"`
	DateTo            string `json:"date_to,omitempty"`
}

// Descriptor convierte y valida.
func (r Request) Descriptor() (Descriptor, error) {
	from, err := ParseDate(r.DateFrom)
	if err != nil {
		return Descriptor{}, err
	}
	to, err := ParseDate(r.DateTo)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		Veterinary: r.IncludeVeterinary,
		Laboratory: r.IncludeLaboratory,
		Files:      r.IncludeFiles,
		From:       from,
		To:         to,
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// ParseDate: "" = nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "date %q must be YYYY-MM-DD or RFC3339", raw)
	}
	t = t.UTC()
	return &t, nil
}

// ParseInclude interpreta "veterinary,laboratory" como un scope sin ventana.
// Vacío devuelve nil (sin pedido de recorte).
func ParseInclude(raw string) (*Descriptor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d := Descriptor{}
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, ok := ParseCategory(part)
		if !ok {
			return nil, apperr.Wrap(apperr.ErrInvalidScope, "unknown category %q", part)
		}
		d = d.With(c, true)
	}
	return &d, nil
}
