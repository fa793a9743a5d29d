package horses

import (
	"context"
	"strings"

	"stable-sharing/internal/apperr"
)

// BelongsTo confirma contra el store que el caballo es del tenant. Se usa desde
// shares/shareview sin importar este paquete completo (rompe ciclos).
// Un caballo de otro tenant es ErrNotFound, igual que uno inexistente.
func (s *Service) BelongsTo(ctx context.Context, horseID, tenantID string) (Horse, error) {
	h, err := s.GetByID(ctx, horseID)
	if err != nil {
		return Horse{}, err
	}
	if strings.TrimSpace(tenantID) == "" || h.TenantID != strings.TrimSpace(tenantID) {
		return Horse{}, apperr.Wrap(apperr.ErrNotFound, "horse %s does not belong to tenant %s", horseID, tenantID)
	}
	return h, nil
}
