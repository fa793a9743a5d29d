package tenants

import "context"

// Kind es el tipo declarado de un tenant (stable, laboratory, vet_clinic...).
type Kind string

const (
	KindStable     Kind = "stable"
	KindLaboratory Kind = "laboratory"
	KindVetClinic  Kind = "vet_clinic"
	KindBreeder    Kind = "breeder"
	KindIndividual Kind = "individual"
)

// Directory expone datos de tenants que el core necesita (hoy sólo el tipo).
type Directory interface {
	KindOf(ctx context.Context, tenantID string) (Kind, error)
}
