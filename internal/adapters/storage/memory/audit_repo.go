package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"stable-sharing/internal/domain/audit"
)

// auditRepo es append-only; las lecturas respetan el orden de inserción.
type auditRepo struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{}
}

func (r *auditRepo) Append(ctx context.Context, e audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("audit entry id required")
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *auditRepo) ListByShare(ctx context.Context, shareID string) ([]audit.Entry, error) {
	return r.filter(func(e audit.Entry) bool { return e.ShareID == shareID }), nil
}

func (r *auditRepo) ListByConnection(ctx context.Context, connectionID string) ([]audit.Entry, error) {
	return r.filter(func(e audit.Entry) bool { return e.ConnectionID == connectionID }), nil
}

func (r *auditRepo) filter(keep func(audit.Entry) bool) []audit.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]audit.Entry, 0)
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
