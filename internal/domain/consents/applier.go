package consents

import (
	"context"
	"errors"
	"fmt"

	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/ports/tenants"
)

// PresetApplier siembra grants por defecto al aceptar una conexión.
// Implementa connections.AcceptHook. Es best-effort: cada grant que falla
// se loguea y se sigue con el resto.
type PresetApplier struct {
	grants *Service
	dir    tenants.Directory
	policy PresetPolicy
	log    logger.Logger
}

func NewPresetApplier(grants *Service, dir tenants.Directory, policy PresetPolicy, log logger.Logger) *PresetApplier {
	if log == nil {
		log = logger.Nop()
	}
	return &PresetApplier{
		grants: grants,
		dir:    dir,
		policy: policy,
		log:    log.With(map[string]any{"component": "presets"}),
	}
}

var _ connections.AcceptHook = (*PresetApplier)(nil)

func (a *PresetApplier) ApplyPresets(ctx context.Context, c connections.Connection) error {
	if a.policy == nil || a.dir == nil {
		return nil
	}
	// corre fuera del request: se relee por si la conexión cambió
	c, err := a.grants.conns.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.State != connections.StateAccepted || c.RecipientTenantID == "" {
		return nil
	}

	initKind, err := a.dir.KindOf(ctx, c.InitiatorTenantID)
	if err != nil {
		return fmt.Errorf("presets: kind of %s: %w", c.InitiatorTenantID, err)
	}
	recKind, err := a.dir.KindOf(ctx, c.RecipientTenantID)
	if err != nil {
		return fmt.Errorf("presets: kind of %s: %w", c.RecipientTenantID, err)
	}

	var errs []error
	created := 0
	for _, p := range a.policy.PresetsFor(initKind, recKind) {
		// con kinds iguales el preset aplica en ambos sentidos
		var grantors []string
		if p.GrantorKind == initKind {
			grantors = append(grantors, c.InitiatorTenantID)
		}
		if p.GrantorKind == recKind {
			grantors = append(grantors, c.RecipientTenantID)
		}

		for _, grantor := range grantors {
			_, err := a.grants.createFromPreset(ctx, c, grantor, CreateInput{
				ResourceType: p.ResourceType,
				AccessLevel:  p.AccessLevel,
				ForwardOnly:  p.ForwardOnly,
			})
			if err != nil {
				a.log.Warn("preset grant skipped", map[string]any{
					"connection_id": c.ID,
					"grantor":       grantor,
					"resource":      string(p.ResourceType),
					"err":           err,
				})
				errs = append(errs, err)
				continue
			}
			created++
		}
	}

	a.log.Info("presets applied", map[string]any{
		"connection_id": c.ID,
		"kinds":         string(initKind) + "/" + string(recKind),
		"created":       created,
		"failed":        len(errs),
	})
	return errors.Join(errs...)
}
