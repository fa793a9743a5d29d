package plansfeatures

import (
	"context"
	"strings"

	"stable-sharing/internal/ports/capabilities"
)

var _ capabilities.Resolver = (*Resolver)(nil)

// Resolver decide sharing:manage consultando plans-features.
type Resolver struct {
	client   *Client
	allowAll bool
}

// NewResolver crea un resolver. Con allowAll (capabilities.allow_all o
// ALLOW_ALL_CAPABILITIES=true) todo devuelve true sin llamar a upstream;
// sólo para dev.
func NewResolver(client *Client, allowAll bool) *Resolver {
	return &Resolver{
		client:   client,
		allowAll: allowAll,
	}
}

// CanManageSharing responde si actorID tiene sharing:manage en tenantID.
func (r *Resolver) CanManageSharing(ctx context.Context, actorID, tenantID string) (bool, error) {
	return r.Has(ctx, actorID, tenantID, capabilities.ManageSharing)
}

// Has responde si userID tiene una capability en el tenant.
func (r *Resolver) Has(ctx context.Context, userID, tenantID, capability string) (bool, error) {
	capability = strings.TrimSpace(capability)
	if capability == "" {
		return false, nil
	}
	if r.allowAll {
		return true, nil
	}
	if r.client == nil || !r.client.IsConfigured() {
		// preferimos fallar explícito en vez de permitir sin control
		return false, ErrPlansNotConfigured
	}

	resp, err := r.client.GetCapabilities(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return resp.Capabilities[capability], nil
}
