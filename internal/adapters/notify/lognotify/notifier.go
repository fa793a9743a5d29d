// Package lognotify es el notifier de dev: deja cada evento en el log.
package lognotify

import (
	"context"

	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/ports/notify"
)

var _ notify.Notifier = (*Notifier)(nil)

type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{log: log.With(map[string]any{"component": "notify"})}
}

func (n *Notifier) Notify(ctx context.Context, e notify.Event) error {
	n.log.Info("notification", map[string]any{
		"kind":          string(e.Kind),
		"connection_id": e.ConnectionID,
		"grant_id":      e.GrantID,
		"actor_id":      e.ActorID,
		"tenant_ids":    e.TenantIDs,
	})
	return nil
}
